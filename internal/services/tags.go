package services

import (
	"errors"
	"fmt"
	"strings"

	"inkwell/internal/db"
	"inkwell/internal/models"
	"inkwell/internal/utils"

	"gorm.io/gorm"
)

// ErrTagSlugConflict means a submitted tag name derives the same slug as an
// existing tag with a different name. The submission is invalid, not a race.
var ErrTagSlugConflict = errors.New("tag name collides with an existing tag's slug")

// ParseTagNames splits free-text tag input (comma or semicolon separated)
// into distinct trimmed names, preserving submission order.
func ParseTagNames(input string) []string {
	input = strings.ReplaceAll(input, ",", ";")
	seen := make(map[string]bool)
	var names []string
	for _, part := range strings.Split(input, ";") {
		name := strings.TrimSpace(part)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	return names
}

// SyncPostTags reconciles a post's tag associations with the submitted
// names: each name is found or created (slug derived on create), then the
// post's tag set is replaced in one transaction so a resubmission is
// idempotent and omitted tags are detached.
func SyncPostTags(post *models.Post, names []string) error {
	return db.DB.Transaction(func(tx *gorm.DB) error {
		tags := make([]models.Tag, 0, len(names))
		for _, name := range names {
			tag, err := findOrCreateTag(tx, name)
			if err != nil {
				return err
			}
			tags = append(tags, tag)
		}
		if err := tx.Model(post).Association("Tags").Clear(); err != nil {
			return err
		}
		if len(tags) == 0 {
			return nil
		}
		return tx.Model(post).Association("Tags").Append(&tags)
	})
}

// findOrCreateTag looks a tag up by name and inserts it on miss. A concurrent
// insert losing to the unique index is resolved by re-reading.
func findOrCreateTag(tx *gorm.DB, name string) (models.Tag, error) {
	var tag models.Tag
	err := tx.Where("name = ?", name).First(&tag).Error
	if err == nil {
		return tag, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return tag, err
	}

	tag = models.Tag{Name: name, Slug: utils.Slugify(name)}
	if err := tx.Create(&tag).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Someone else created it between our read and write
			var existing models.Tag
			if rerr := tx.Where("name = ?", name).First(&existing).Error; rerr == nil {
				return existing, nil
			}
			// Not a race: a differently named tag already owns this slug
			if rerr := tx.Where("slug = ?", tag.Slug).First(&existing).Error; rerr == nil {
				return tag, fmt.Errorf("%w: %q vs %q", ErrTagSlugConflict, name, existing.Name)
			}
		}
		return tag, err
	}
	return tag, nil
}
