package seed

import (
	_ "embed"
	"fmt"

	"hehememe/internal/models"

	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

//go:embed memes.yml
var builtInMemesYAML []byte

// BuiltInMeme is a starter meme shipped with the application so a fresh
// install has a non-empty feed.
type BuiltInMeme struct {
	ImageURL string `yaml:"image_url"`
	Caption  string `yaml:"caption"`
}

type builtInMemeFile struct {
	Memes []BuiltInMeme `yaml:"memes"`
}

// BuiltInMemes parses the embedded starter meme fixtures.
func BuiltInMemes() ([]BuiltInMeme, error) {
	var file builtInMemeFile
	if err := yaml.Unmarshal(builtInMemesYAML, &file); err != nil {
		return nil, fmt.Errorf("parse built-in memes: %w", err)
	}
	return file.Memes, nil
}

// Memes seeds the starter memes, attributed to the root user. Seeding is
// idempotent: a meme whose image URL already exists is left alone.
func Memes(db *gorm.DB) error {
	memes, err := BuiltInMemes()
	if err != nil {
		return err
	}

	// The starter memes need an author; make sure user 1 exists.
	rootUser := models.User{
		ID:       1,
		Username: "hehememe",
		Address:  "0x0000000000000000000000000000000000000001",
	}
	if err := db.Where("id = ?", 1).FirstOrCreate(&rootUser).Error; err != nil {
		return fmt.Errorf("ensure built-in meme author: %w", err)
	}

	for _, item := range memes {
		err := db.Transaction(func(tx *gorm.DB) error {
			var count int64
			if err := tx.Model(&models.Post{}).
				Where("image_url = ?", item.ImageURL).
				Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				return nil
			}
			return tx.Create(&models.Post{
				ImageURL: item.ImageURL,
				Caption:  item.Caption,
				UserID:   1,
			}).Error
		})
		if err != nil {
			return fmt.Errorf("seed built-in meme %q: %w", item.Caption, err)
		}
	}
	return nil
}
