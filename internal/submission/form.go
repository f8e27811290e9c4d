package submission

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/osse101/opitemdb/internal/domain"
	"github.com/osse101/opitemdb/internal/validation"
)

// File is an image attached to the form
type File struct {
	Name        string
	Size        int64
	ContentType string
	Open        func() (io.ReadCloser, error)
}

// FileFromBytes wraps in-memory content as a File
func FileFromBytes(name, contentType string, data []byte) *File {
	return &File{
		Name:        name,
		Size:        int64(len(data)),
		ContentType: contentType,
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}
}

// FileFromPath describes a file on disk. The content type is sniffed from its first bytes.
func FileFromPath(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	head := make([]byte, 512)
	n, err := io.ReadFull(f, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	contentType := http.DetectContentType(head[:n])
	if contentType == "application/octet-stream" {
		contentType = mime.TypeByExtension(strings.ToLower(filepath.Ext(path)))
	}

	return &File{
		Name:        filepath.Base(path),
		Size:        info.Size(),
		ContentType: contentType,
		Open: func() (io.ReadCloser, error) {
			return os.Open(path)
		},
	}, nil
}

// Ext returns the lower-cased extension of the file name
func (f *File) Ext() string {
	return strings.ToLower(filepath.Ext(f.Name))
}

// RawForm is the submission form as entered, before parsing
type RawForm struct {
	Title        string
	Description  string
	ItemTypeID   string
	MaterialID   string
	RarityID     string
	StarLevel    string
	IsPublished  bool
	Image        *File
	LoreImage    *File
	Enchantments *domain.EnchantmentSelection
}

// Draft is a parsed and validated form
type Draft struct {
	Title        string                   `json:"title" validate:"required,min=1,max=120"`
	Description  string                   `json:"description" validate:"max=500"`
	ItemTypeID   int64                    `json:"item_type_id" validate:"gt=0"`
	MaterialID   int64                    `json:"material_id" validate:"gt=0"`
	RarityID     int64                    `json:"rarity_id" validate:"gt=0"`
	StarLevel    int                      `json:"star_level" validate:"min=0,max=3"`
	IsPublished  bool                     `json:"is_published"`
	Enchantments []domain.ItemEnchantment `json:"enchantments" validate:"dive"`
	Image        *File                    `json:"-"`
	LoreImage    *File                    `json:"-"`
}

// NewItem builds the create payload with the uploaded image URLs
func (d Draft) NewItem(imageURL, loreImageURL string) domain.NewItem {
	enchantments := make([]domain.ItemEnchantment, len(d.Enchantments))
	copy(enchantments, d.Enchantments)
	return domain.NewItem{
		Title:        d.Title,
		Description:  d.Description,
		ImageURL:     imageURL,
		LoreImageURL: loreImageURL,
		ItemTypeID:   d.ItemTypeID,
		MaterialID:   d.MaterialID,
		RarityID:     d.RarityID,
		StarLevel:    d.StarLevel,
		IsPublished:  d.IsPublished,
		Enchantments: enchantments,
	}
}

// ParseForm turns raw form input into a Draft. Field errors are keyed by form field name;
// a nil map means the draft is valid. defs prunes enchantments that no longer exist.
func ParseForm(raw RawForm, defs []domain.Enchantment) (Draft, map[string]string) {
	fields := make(map[string]string)

	d := Draft{
		Title:        strings.TrimSpace(raw.Title),
		Description:  strings.TrimSpace(raw.Description),
		IsPublished:  raw.IsPublished,
		Enchantments: raw.Enchantments.Entries(defs),
		Image:        raw.Image,
		LoreImage:    raw.LoreImage,
	}

	d.ItemTypeID = parseID(raw.ItemTypeID, FieldItemType, fields)
	d.MaterialID = parseID(raw.MaterialID, FieldMaterial, fields)
	d.RarityID = parseID(raw.RarityID, FieldRarity, fields)
	d.StarLevel = parseStarLevel(raw.StarLevel, fields)

	if err := validation.Struct(d); err != nil {
		for field, msg := range validation.FieldErrors(err) {
			// parse errors are more specific than the tag failure they cause
			if _, ok := fields[field]; !ok {
				fields[field] = msg
			}
		}
	}

	checkFile(raw.Image, FieldImage, fields)
	checkFile(raw.LoreImage, FieldLoreImage, fields)

	if len(fields) == 0 {
		return d, nil
	}
	return d, fields
}

func parseID(raw, field string, fields map[string]string) int64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		fields[field] = MsgSelectionRequired
		return 0
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		fields[field] = MsgInvalidSelection
		return 0
	}
	return id
}

func parseStarLevel(raw string, fields map[string]string) int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return domain.MinStarLevel
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		fields[FieldStarLevel] = MsgInvalidStarLevel
		return domain.MinStarLevel
	}
	return n
}

func checkFile(f *File, field string, fields map[string]string) {
	if f == nil {
		return
	}
	if f.Size <= 0 {
		fields[field] = MsgFileEmpty
		return
	}
	if f.Size > domain.MaxUploadBytes {
		fields[field] = MsgFileTooLarge
		return
	}
	if _, ok := domain.AllowedImageTypes[f.Ext()]; !ok {
		fields[field] = MsgFileType
		return
	}
	if contentType := f.MediaType(); contentType != "" && !domain.IsAllowedImageMIME(contentType) {
		fields[field] = MsgFileType
	}
}

// MediaType returns the declared content type without parameters
func (f *File) MediaType() string {
	return strings.TrimSpace(strings.SplitN(f.ContentType, ";", 2)[0])
}
