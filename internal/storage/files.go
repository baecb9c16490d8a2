package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"go-hardware-pos/internal/apperr"
	"go-hardware-pos/internal/auth"
	"go-hardware-pos/internal/logger"
	"go-hardware-pos/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// MaxUploadSize caps a single upload at 20 MB.
const MaxUploadSize = 20 << 20

type FileService struct {
	db  *gorm.DB
	up  Uploader
	log zerolog.Logger
}

func NewFileService(db *gorm.DB, up Uploader) *FileService {
	return &FileService{db: db, up: up, log: logger.WithComponent("storage")}
}

// Upload describes one incoming file.
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// ObjectName is where a user's file lands in the bucket.
func ObjectName(userID uint, filename string) string {
	return fmt.Sprintf("files/%d/%s%s", userID, uuid.NewString(), strings.ToLower(path.Ext(filename)))
}

// Save uploads the file and records it for the user.
func (s *FileService) Save(ctx context.Context, userID uint, in Upload) (*models.File, error) {
	if strings.TrimSpace(in.Filename) == "" || in.Body == nil {
		return nil, apperr.Validation("No file uploaded.")
	}
	if in.Size > MaxUploadSize {
		return nil, apperr.Validation("File is larger than 20 MB.")
	}

	name := ObjectName(userID, in.Filename)
	url, err := s.up.Put(ctx, name, in.ContentType, in.Body)
	if err != nil {
		s.log.Error().Err(err).Str("object", name).Msg("upload failed")
		return nil, apperr.Persistence("Failed to upload file.", err)
	}

	file := models.File{
		UserID:    userID,
		Filename:  path.Base(in.Filename),
		ObjectKey: name,
		FileURL:   url,
		FileType:  in.ContentType,
		FileSize:  in.Size,
	}
	if err := s.db.WithContext(ctx).Create(&file).Error; err != nil {
		// Do not leave an orphan object behind.
		if rmErr := s.up.Remove(ctx, name); rmErr != nil {
			s.log.Warn().Err(rmErr).Str("object", name).Msg("orphan object left after failed insert")
		}
		return nil, apperr.Persistence("Failed to save file record.", err)
	}
	return &file, nil
}

// List returns the user's files, newest first.
func (s *FileService) List(ctx context.Context, userID uint) ([]models.File, error) {
	var files []models.File
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at desc, id desc").Find(&files).Error
	if err != nil {
		return nil, apperr.Persistence("Failed to load files.", err)
	}
	return files, nil
}

// Delete removes the object and then its record. Only the uploader may delete.
func (s *FileService) Delete(ctx context.Context, actor auth.Actor, id uint) error {
	var file models.File
	if err := s.db.WithContext(ctx).First(&file, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("File not found.")
		}
		return apperr.Persistence("Failed to load file.", err)
	}
	if file.UserID != actor.UserID {
		return apperr.Forbidden("You can only delete your own files.")
	}

	if err := s.up.Remove(ctx, file.ObjectKey); err != nil {
		return apperr.Persistence("Failed to delete file from storage.", err)
	}
	if err := s.db.WithContext(ctx).Delete(&file).Error; err != nil {
		return apperr.Persistence("Failed to delete file record.", err)
	}
	return nil
}
