package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	gameanalytics "github.com/Tap30/gameanalytics-go"
	"github.com/Tap30/gameanalytics-go/adapters"
	"github.com/Tap30/gameanalytics-go/internal/config"
	"github.com/Tap30/gameanalytics-go/internal/telemetry"
)

var client *gameanalytics.Client
var scanner *bufio.Scanner

func main() {
	configPath := flag.String("config", config.DefaultPath, "path to the YAML config file")
	burstCount := flag.Int("burst", 0, "send N design events concurrently and exit")
	concurrency := flag.Int("concurrency", 8, "in-flight requests for -burst")
	flag.Parse()

	// Load .env file if it exists
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Printf("❌ Failed to load config: %v\n", err)
		os.Exit(1)
	}
	level, err := adapters.ParseLogLevel(cfg.Client.LogLevel)
	if err != nil {
		fmt.Printf("❌ %v\n", err)
		os.Exit(1)
	}
	logger := adapters.NewJSONLoggerAdapter(os.Stderr, level)

	if cfg.Telemetry.Enabled {
		_, shutdown, err := telemetry.InitTracer(cfg.Telemetry.ServiceName, os.Stderr, slog.Default())
		if err != nil {
			fmt.Printf("❌ Failed to initialize tracer: %v\n", err)
			os.Exit(1)
		}
		defer shutdown(context.Background())
	}

	var closeStore func() error
	client, closeStore, err = newClient(cfg, logger, nil)
	if err != nil {
		fmt.Printf("❌ Failed to create client: %v\n", err)
		os.Exit(1)
	}
	defer closeStore()

	ctx := context.Background()
	if err := client.Init(ctx); err != nil {
		fmt.Printf("❌ Failed to initialize client: %v\n", err)
		os.Exit(1)
	}

	if *burstCount > 0 {
		start := time.Now()
		sent, err := burst(ctx, client, *burstCount, *concurrency)
		fmt.Printf("📦 Sent %d/%d events in %v\n", sent, *burstCount, time.Since(start).Round(time.Millisecond))
		if err != nil {
			fmt.Printf("❌ Burst stopped: %v\n", err)
			os.Exit(1)
		}
		return
	}

	scanner = bufio.NewScanner(os.Stdin)
	fmt.Println("🎯 GameAnalytics Interactive Client")
	fmt.Printf("Connected to: %s (session %d)\n", cfg.Game.BaseURL, client.SessionNumber())
	fmt.Println()

	for {
		showMenu()
		choice := readInput("Choose an option: ")

		switch choice {
		case "1":
			sendBusinessEvent(ctx)
		case "2":
			sendDesignEvent(ctx)
		case "3":
			sendProgressionEvent(ctx)
		case "4":
			sendResourceEvent(ctx)
		case "5":
			sendErrorEvent(ctx)
		case "6":
			sendUserEvent(ctx)
		case "7":
			setUserID()
		case "8":
			viewSession()
		case "9":
			runBurst(ctx)
		case "10":
			initClient(ctx)
		case "11":
			endSession(ctx)
		case "12":
			fmt.Println("👋 Goodbye!")
			_ = client.Dispose(ctx)
			return
		default:
			fmt.Println("❌ Invalid option. Please try again.")
			fmt.Println()
		}
	}
}

func showMenu() {
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Println("📊 Events")
	fmt.Println("1. Business Event")
	fmt.Println("2. Design Event")
	fmt.Println("3. Progression Event")
	fmt.Println("4. Resource Event")
	fmt.Println("5. Error Event")
	fmt.Println()
	fmt.Println("👤 Player")
	fmt.Println("6. Update Profile (User Event)")
	fmt.Println("7. Set User ID")
	fmt.Println("8. View Session")
	fmt.Println()
	fmt.Println("📦 Load")
	fmt.Println("9. Burst Design Events")
	fmt.Println()
	fmt.Println("🔄 Lifecycle Management")
	fmt.Println("10. Re-initialize (new session)")
	fmt.Println("11. End Session")
	fmt.Println("12. Exit")
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
}

func readInput(prompt string) string {
	fmt.Print(prompt)
	scanner.Scan()
	return strings.TrimSpace(scanner.Text())
}

func readInt(prompt string, fallback int) int {
	n, err := strconv.Atoi(readInput(prompt))
	if err != nil {
		return fallback
	}
	return n
}

func report(what string, err error) {
	var transportErr *gameanalytics.TransportError
	switch {
	case err == nil:
		fmt.Printf("✅ Sent: %s\n\n", what)
	case errors.Is(err, gameanalytics.ErrNotInitialized):
		fmt.Printf("⚠️  Not initialized, choose 10 first\n\n")
	case errors.As(err, &transportErr):
		fmt.Printf("❌ Collector rejected %s: %v\n\n", what, err)
	default:
		fmt.Printf("❌ Error sending %s: %v\n\n", what, err)
	}
}

func sendBusinessEvent(ctx context.Context) {
	fmt.Println("\n💰 Business Event")
	itemType := readInput("Item type [Gems]: ")
	if itemType == "" {
		itemType = "Gems"
	}
	currency := readInput("Currency [USD]: ")
	if currency == "" {
		currency = "USD"
	}
	amount := readInt("Amount in cents [99]: ", 99)
	err := client.SendBusinessEvent(ctx, itemType+":Pack", currency, amount, &gameanalytics.BusinessOptions{CartType: "shop"})
	report(fmt.Sprintf("%d %s", amount, currency), err)
}

func sendDesignEvent(ctx context.Context) {
	fmt.Println("\n🎨 Design Event")
	eventID := readInput("Event id [Boss:Killed]: ")
	if eventID == "" {
		eventID = "Boss:Killed"
	}
	var value *float64
	if raw := readInput("Value (optional): "); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			fmt.Printf("❌ Invalid value: %v\n\n", err)
			return
		}
		value = &v
	}
	report(eventID, client.SendDesignEvent(ctx, eventID, value))
}

func sendProgressionEvent(ctx context.Context) {
	fmt.Println("\n🏁 Progression Event")
	status, err := gameanalytics.ParseProgressionStatus(readInput("Status (start/fail/complete): "))
	if err != nil {
		fmt.Printf("❌ %v\n\n", err)
		return
	}
	level := readInput("Level [World1:Level1]: ")
	if level == "" {
		level = "World1:Level1"
	}
	score := readInt("Score [0]: ", 0)
	report(status.String()+":"+level, client.SendProgressionEvent(ctx, status, level, &score))
}

func sendResourceEvent(ctx context.Context) {
	fmt.Println("\n💎 Resource Event")
	flow, err := gameanalytics.ParseFlowType(readInput("Flow (sink/source): "))
	if err != nil {
		fmt.Printf("❌ %v\n\n", err)
		return
	}
	amount := readInt("Amount [10]: ", 10)
	report(flow.String()+":Gems", client.SendResourceEvent(ctx, flow, "Gems", "Weapons", "Sword", float64(amount)))
}

func sendErrorEvent(ctx context.Context) {
	fmt.Println("\n⚠️  Error Event")
	severity, err := gameanalytics.ParseSeverity(readInput("Severity (critical/error/warning/info/debug): "))
	if err != nil {
		fmt.Printf("❌ %v\n\n", err)
		return
	}
	message := readInput("Message: ")
	report(severity.String(), client.SendErrorEvent(ctx, message, severity))
}

func sendUserEvent(ctx context.Context) {
	fmt.Println("\n👤 User Event")
	profile := gameanalytics.NewUserProfile()
	profile.BirthYear = readInt("Birth year (empty to skip): ", -1)
	if raw := readInput("Gender (male/female, empty to skip): "); raw != "" {
		gender, err := gameanalytics.ParseGender(raw)
		if err != nil {
			fmt.Printf("❌ %v\n\n", err)
			return
		}
		profile.Gender = gender
	}
	profile.FacebookID = readInput("Facebook id (empty to skip): ")
	report("user profile", client.SendUserEvent(ctx, profile))
}

func setUserID() {
	fmt.Println("\n🏷️  Set User ID")
	id := readInput("User id (empty for hardware id): ")
	client.SetUserID(id)
	fmt.Printf("✅ User id set\n\n")
}

func viewSession() {
	fmt.Println("\n🔍 Session")
	s := client.Session()
	fmt.Printf("  id:       %s\n", s.SessionID)
	fmt.Printf("  number:   %d\n", s.SessionNumber)
	fmt.Printf("  state:    %s\n", s.State)
	fmt.Printf("  offset:   %d\n", s.ServerTimestampOffset)
	if elapsed, err := client.ElapsedSeconds(); err == nil {
		fmt.Printf("  elapsed:  %ds\n", elapsed)
	}
	p := client.UserProfile()
	fmt.Printf("  profile:  gender=%s birth_year=%d facebook_id=%q\n\n", p.Gender, p.BirthYear, p.FacebookID)
}

func runBurst(ctx context.Context) {
	fmt.Println("\n📦 Burst")
	n := readInt("How many events [20]: ", 20)
	start := time.Now()
	sent, err := burst(ctx, client, n, 8)
	fmt.Printf("📦 Sent %d/%d events in %v\n", sent, n, time.Since(start).Round(time.Millisecond))
	if err != nil {
		fmt.Printf("❌ Burst stopped: %v\n", err)
	}
	fmt.Println()
}

func initClient(ctx context.Context) {
	fmt.Println("\n🔄 Initialize")
	if err := client.Init(ctx); err != nil {
		fmt.Printf("❌ Init failed: %v\n\n", err)
		return
	}
	fmt.Printf("✅ Session %d started\n\n", client.SessionNumber())
}

func endSession(ctx context.Context) {
	fmt.Println("\n🔚 End Session")
	report("session_end", client.SendSessionEndEvent(ctx))
}
