package db

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
	"liyu1981.xyz/flow-meter-service/pkg/common"
	"liyu1981.xyz/flow-meter-service/pkg/models"
)

type Seed struct {
	Owner  SeedOwner   `yaml:"owner"`
	Meters []SeedMeter `yaml:"meters"`
}

type SeedOwner struct {
	FirstName string `yaml:"first_name"`
	LastName  string `yaml:"last_name"`
	Phone     string `yaml:"phone"`
	Role      string `yaml:"role"`
}

type SeedMeter struct {
	Code         string `yaml:"code"`
	Pin          string `yaml:"pin"`
	Category     string `yaml:"category"`
	Neighborhood string `yaml:"neighborhood"`
	Street       string `yaml:"street"`
	Number       string `yaml:"number"`
	Parcel       string `yaml:"parcel"`
}

func LoadSeed(path string) (*Seed, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var seed Seed
	if err := yaml.NewDecoder(f).Decode(&seed); err != nil {
		return nil, fmt.Errorf("decode seed file %s: %w", path, err)
	}

	if seed.Owner.Role == "" {
		seed.Owner.Role = string(models.UserRoleAdmin)
	}

	for i, m := range seed.Meters {
		if m.Code == "" || m.Pin == "" {
			return nil, fmt.Errorf("seed meter #%d: code and pin are required", i)
		}
	}

	return &seed, nil
}

// ApplySeed creates the owner and any missing meters. Existing meters are
// left untouched, so it is safe on every start.
func ApplySeed(conn *gorm.DB, seed *Seed) error {
	logger := common.GetLoggerWith(common.LoggerNameIOTCore,
		zap.String(common.LoggerFieldIOTCategory, common.LoggerCategoryIOTMeter))

	return conn.Transaction(func(tx *gorm.DB) error {
		owner := models.User{
			FirstName: seed.Owner.FirstName,
			LastName:  seed.Owner.LastName,
			Phone:     seed.Owner.Phone,
			Role:      models.UserRole(seed.Owner.Role),
		}
		if err := tx.Where(models.User{Role: owner.Role, Phone: owner.Phone}).
			FirstOrCreate(&owner).Error; err != nil {
			return fmt.Errorf("seed owner: %w", err)
		}

		for _, m := range seed.Meters {
			meter := models.Meter{
				MeterCode:    m.Code,
				Pin:          m.Pin,
				Category:     m.Category,
				Neighborhood: m.Neighborhood,
				Street:       m.Street,
				Number:       m.Number,
				Parcel:       m.Parcel,
				UserID:       &owner.ID,
			}
			result := tx.Where(models.Meter{MeterCode: m.Code}).FirstOrCreate(&meter)
			if result.Error != nil {
				return fmt.Errorf("seed meter %s: %w", m.Code, result.Error)
			}
			if result.RowsAffected > 0 {
				logger.Info("Seeded meter", zap.String("meter_code", m.Code))
			}
		}
		return nil
	})
}
