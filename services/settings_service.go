package services

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/ysalem/formbuilder-server/models"
	"github.com/ysalem/formbuilder-server/utils"
)

const settingsCacheTTL = 300 * time.Second

// SettingsService reads typed values from the settings table through a
// pass-through TTL cache. Missing keys fall back to the supplied default.
type SettingsService struct {
	db    *gorm.DB
	cache *utils.TTLCache
}

func NewSettingsService(db *gorm.DB, cache *utils.TTLCache) *SettingsService {
	return &SettingsService{db: db, cache: cache}
}

func (s *SettingsService) raw(key string) (string, bool) {
	cacheKey := "setting:" + key
	if v, ok := s.cache.Get(cacheKey); ok {
		val := v.(string)
		return val, val != ""
	}

	var row models.Setting
	err := s.db.First(&row, "key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		s.cache.Set(cacheKey, "", settingsCacheTTL)
		return "", false
	}
	if err != nil {
		// Treat a read failure as a miss so callers keep their defaults.
		return "", false
	}
	s.cache.Set(cacheKey, row.Value, settingsCacheTTL)
	return row.Value, row.Value != ""
}

func (s *SettingsService) String(key, def string) string {
	if v, ok := s.raw(key); ok {
		return v
	}
	return def
}

func (s *SettingsService) Int(key string, def int) int {
	if v, ok := s.raw(key); ok {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n
		}
	}
	return def
}

// List splits a comma-separated value, trimming blanks.
func (s *SettingsService) List(key string) []string {
	v, ok := s.raw(key)
	if !ok {
		return nil
	}
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Put upserts a setting and invalidates its cache entry.
func (s *SettingsService) Put(key, value string) error {
	row := models.Setting{Key: key, Value: value}
	err := s.db.Save(&row).Error
	if err != nil {
		return err
	}
	s.cache.Delete("setting:" + key)
	return nil
}

// All returns every stored setting, for the admin settings screen.
func (s *SettingsService) All() ([]models.Setting, error) {
	var rows []models.Setting
	if err := s.db.Order("key ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
