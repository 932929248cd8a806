package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/oggyb/tinderito/internal/db"
)

// PhotoRepository provides data access methods for the Photo model.
type PhotoRepository struct {
	db *gorm.DB
}

// NewPhotoRepository creates a new repository bound to the given DB connection.
func NewPhotoRepository(database *gorm.DB) *PhotoRepository {
	return &PhotoRepository{db: database}
}

// ListURLs returns the user's photo URLs ordered by id.
func (r *PhotoRepository) ListURLs(ctx context.Context, userID uint64) ([]string, error) {
	urls := []string{}
	err := r.db.WithContext(ctx).
		Model(&db.Photo{}).
		Where("user_id = ?", userID).
		Order("id ASC").
		Pluck("url", &urls).Error
	return urls, err
}

// Add appends photos to the user's list, preserving order.
func (r *PhotoRepository) Add(ctx context.Context, userID uint64, urls ...string) ([]db.Photo, error) {
	if len(urls) == 0 {
		return nil, nil
	}
	photos := make([]db.Photo, 0, len(urls))
	for _, u := range urls {
		photos = append(photos, db.Photo{UserID: userID, URL: u})
	}
	if err := r.db.WithContext(ctx).Create(&photos).Error; err != nil {
		return nil, err
	}
	return photos, nil
}

// Replace deletes the user's photos and inserts urls in their place.
// Callers run it inside a transaction so readers never see a partial list.
func (r *PhotoRepository) Replace(ctx context.Context, userID uint64, urls []string) error {
	if err := r.DeleteForUser(ctx, userID); err != nil {
		return err
	}
	_, err := r.Add(ctx, userID, urls...)
	return err
}

// DeleteForUser removes all photos of userID.
func (r *PhotoRepository) DeleteForUser(ctx context.Context, userID uint64) error {
	return r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&db.Photo{}).Error
}
