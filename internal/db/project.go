package db

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Project is a tenant protected by the edge. Traffic, endpoints and
// keys hang off it and are cascade-deleted with it.
type Project struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"`

	CreatedAt time.Time

	Name string `gorm:"not null"`

	// UpstreamBaseURL is where the edge workers proxy verified traffic.
	UpstreamBaseURL string `gorm:"not null"`

	Domains     []Domain     `gorm:"constraint:OnDelete:CASCADE"`
	APIKeys     []APIKey     `gorm:"constraint:OnDelete:CASCADE"`
	Endpoints   []Endpoint   `gorm:"constraint:OnDelete:CASCADE"`
	TrafficLogs []TrafficLog `gorm:"constraint:OnDelete:CASCADE"`
}

func (p *Project) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// Domain is a hostname claimed by a project. Workers only serve
// verified domains, so the worker-config projection filters on
// Verified.
type Domain struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"`

	CreatedAt time.Time

	ProjectID uuid.UUID `gorm:"type:uuid;index;not null"`
	Hostname  string    `gorm:"uniqueIndex;not null"`

	Verified   bool `gorm:"not null;default:false"`
	VerifiedAt *time.Time
}

func (d *Domain) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}

// WorkerProject is the per-project slice of configuration an edge
// worker needs to route and authenticate traffic: the upstream origin,
// the verified hostnames and the hashes of keys it should accept.
type WorkerProject struct {
	ProjectID   uuid.UUID `json:"project_id"`
	UpstreamURL string    `json:"upstream_url"`
	Domains     []string  `json:"domains"`
	KeyHashes   []string  `json:"key_hashes"`
}

// WorkerConfigs builds the full worker configuration snapshot: one
// entry per project, with only verified domains and active keys.
// Projects without verified domains are still included so a worker can
// recognise (and reject) their keys.
func WorkerConfigs(db *gorm.DB) ([]WorkerProject, error) {
	var projects []Project
	if err := db.Order("created_at").Find(&projects).Error; err != nil {
		return nil, err
	}

	var domains []Domain
	if err := db.Where("verified = ?", true).Find(&domains).Error; err != nil {
		return nil, err
	}
	domainsByProject := make(map[uuid.UUID][]string)
	for _, d := range domains {
		domainsByProject[d.ProjectID] = append(domainsByProject[d.ProjectID], d.Hostname)
	}

	var keys []APIKey
	if err := db.Where("is_active = ?", true).Find(&keys).Error; err != nil {
		return nil, err
	}
	keysByProject := make(map[uuid.UUID][]string)
	for _, k := range keys {
		keysByProject[k.ProjectID] = append(keysByProject[k.ProjectID], k.KeyHash)
	}

	configs := make([]WorkerProject, 0, len(projects))
	for _, p := range projects {
		cfg := WorkerProject{
			ProjectID:   p.ID,
			UpstreamURL: p.UpstreamBaseURL,
			Domains:     domainsByProject[p.ID],
			KeyHashes:   keysByProject[p.ID],
		}
		if cfg.Domains == nil {
			cfg.Domains = []string{}
		}
		if cfg.KeyHashes == nil {
			cfg.KeyHashes = []string{}
		}
		configs = append(configs, cfg)
	}
	return configs, nil
}
