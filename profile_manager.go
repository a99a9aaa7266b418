package gameanalytics

import "sync"

// UserProfile describes the player. String fields are unset when empty;
// BirthYear and FriendCount are unset when <= 0.
type UserProfile struct {
	Gender       Gender
	BirthYear    int
	FacebookID   string
	GooglePlusID string

	FriendCount      int
	IOSID            string
	AndroidID        string
	InstallPublisher string
	InstallSite      string
	InstallCampaign  string
	InstallAdGroup   string
	InstallAd        string
	InstallKeyword   string
	OSMajor          string
	OSMinor          string
	Device           string
}

// NewUserProfile returns a profile with every field unset.
func NewUserProfile() UserProfile {
	return UserProfile{BirthYear: -1, FriendCount: -1}
}

// extendedFields returns the set extended fields keyed by wire name.
func (p UserProfile) extendedFields() map[string]any {
	fields := make(map[string]any)
	if p.FriendCount > 0 {
		fields["friend_count"] = p.FriendCount
	}
	strs := []struct {
		key, value string
	}{
		{"ios_id", p.IOSID},
		{"android_id", p.AndroidID},
		{"install_publisher", p.InstallPublisher},
		{"install_site", p.InstallSite},
		{"install_campaign", p.InstallCampaign},
		{"install_adgroup", p.InstallAdGroup},
		{"install_ad", p.InstallAd},
		{"install_keyword", p.InstallKeyword},
		{"os_major", p.OSMajor},
		{"os_minor", p.OSMinor},
	}
	for _, s := range strs {
		if s.value != "" {
			fields[s.key] = s.value
		}
	}
	return fields
}

// profileManager manages the merged user profile plus the user id and
// build overrides attached to every event.
type profileManager struct {
	mu      sync.RWMutex
	profile UserProfile
	userID  string
	build   string
}

func newProfileManager() *profileManager {
	return &profileManager{profile: NewUserProfile()}
}

// Merge overwrites only the fields that are set in update. A gender outside
// the defined set fails before anything is merged.
func (m *profileManager) Merge(update UserProfile) error {
	if _, err := update.Gender.WireName(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	mergeProfile(&m.profile, update)
	return nil
}

// preview returns the identity Merge(update) would produce without storing it.
func (m *profileManager) preview(update UserProfile) (identity, error) {
	if _, err := update.Gender.WireName(); err != nil {
		return identity{}, err
	}
	who := m.snapshot()
	mergeProfile(&who.profile, update)
	return who, nil
}

func mergeProfile(p *UserProfile, update UserProfile) {
	if update.Gender != GenderUnknown {
		p.Gender = update.Gender
	}
	if update.BirthYear > 0 {
		p.BirthYear = update.BirthYear
	}
	if update.FriendCount > 0 {
		p.FriendCount = update.FriendCount
	}
	mergeString(&p.FacebookID, update.FacebookID)
	mergeString(&p.GooglePlusID, update.GooglePlusID)
	mergeString(&p.IOSID, update.IOSID)
	mergeString(&p.AndroidID, update.AndroidID)
	mergeString(&p.InstallPublisher, update.InstallPublisher)
	mergeString(&p.InstallSite, update.InstallSite)
	mergeString(&p.InstallCampaign, update.InstallCampaign)
	mergeString(&p.InstallAdGroup, update.InstallAdGroup)
	mergeString(&p.InstallAd, update.InstallAd)
	mergeString(&p.InstallKeyword, update.InstallKeyword)
	mergeString(&p.OSMajor, update.OSMajor)
	mergeString(&p.OSMinor, update.OSMinor)
	mergeString(&p.Device, update.Device)
}

func mergeString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// Profile returns a copy of the merged profile
func (m *profileManager) Profile() UserProfile {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.profile
}

func (m *profileManager) SetUserID(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.userID = id
}

func (m *profileManager) SetBuild(build string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.build = build
}

// identity holds what the builder needs from the manager, read under one lock.
type identity struct {
	profile UserProfile
	userID  string
	build   string
}

func (m *profileManager) snapshot() identity {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return identity{profile: m.profile, userID: m.userID, build: m.build}
}
