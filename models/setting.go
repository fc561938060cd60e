package models

import (
	"errors"

	"gorm.io/gorm"
)

// Setting is a persisted key/value settings store. Environment variables take
// precedence over rows in this table wherever both are consulted.
type Setting struct {
	gorm.Model
	Key   string `gorm:"uniqueIndex;not null" json:"key"`
	Value string `json:"value"`
}

// SettingFlightAPIKey holds the flight provider API key when it is managed
// through the admin settings endpoints instead of the environment.
const SettingFlightAPIKey = "AERODATABOX_API_KEY"

func GetSetting(db *gorm.DB, key string) (string, error) {
	var setting Setting
	if err := db.Where("key = ?", key).First(&setting).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", err
	}
	return setting.Value, nil
}

func SetSetting(db *gorm.DB, key, value string) error {
	var setting Setting
	err := db.Where("key = ?", key).First(&setting).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return db.Create(&Setting{Key: key, Value: value}).Error
	}
	if err != nil {
		return err
	}
	return db.Model(&setting).Update("value", value).Error
}

func DeleteSetting(db *gorm.DB, key string) error {
	return db.Unscoped().Where("key = ?", key).Delete(&Setting{}).Error
}
