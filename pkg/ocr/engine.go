package ocr

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"os"
	"strings"
	"sync"

	"github.com/otiai10/gosseract/v2"

	"github.com/fadedpez/pokerscribe/internal/types"
	"github.com/fadedpez/pokerscribe/pkg/extract"
)

// Config configures the Tesseract engine
type Config struct {
	// TessdataPrefix points at the tessdata directory, empty uses the
	// library default
	TessdataPrefix string
	Language       string
	// Whitelist restricts recognised characters, empty allows all
	Whitelist string
}

// Engine is a Tesseract OCR engine. A gosseract client is not safe for
// concurrent use so calls are serialised.
type Engine struct {
	mu     sync.Mutex
	client *gosseract.Client
}

// NewEngine creates a Tesseract client
func NewEngine(cfg Config) (*Engine, error) {
	client := gosseract.NewClient()
	if cfg.TessdataPrefix != "" {
		if _, err := os.Stat(cfg.TessdataPrefix); err != nil {
			client.Close()
			return nil, types.WrapError(types.ErrConfiguration, fmt.Sprintf("tessdata directory %s not found", cfg.TessdataPrefix), err)
		}
		if err := client.SetTessdataPrefix(cfg.TessdataPrefix); err != nil {
			client.Close()
			return nil, types.WrapError(types.ErrConfiguration, "failed to set tessdata prefix", err)
		}
	}
	if cfg.Language != "" {
		if err := client.SetLanguage(cfg.Language); err != nil {
			client.Close()
			return nil, types.WrapError(types.ErrConfiguration, "failed to set OCR language", err)
		}
	}
	if cfg.Whitelist != "" {
		if err := client.SetWhitelist(cfg.Whitelist); err != nil {
			client.Close()
			return nil, types.WrapError(types.ErrConfiguration, "failed to set OCR whitelist", err)
		}
	}
	return &Engine{client: client}, nil
}

// Recognize runs OCR over a PNG encoded bitmap with the given page
// segmentation mode and returns the text with whitespace collapsed
func (e *Engine) Recognize(bitmap []byte, mode extract.SegMode) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.client.SetPageSegMode(gosseract.PageSegMode(mode)); err != nil {
		return "", fmt.Errorf("failed to set page segmentation mode %s: %w", mode, err)
	}
	if err := e.client.SetImageFromBytes(bitmap); err != nil {
		return "", fmt.Errorf("failed to load bitmap: %w", err)
	}
	text, err := e.client.Text()
	if err != nil {
		return "", err
	}
	return strings.Join(strings.Fields(text), " "), nil
}

// Version returns the Tesseract library version
func (e *Engine) Version() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.client.Version()
}

// Close releases the client
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.client.Close()
}

// Check creates an engine and runs it over a blank image so the language
// data is loaded. A failure is a configuration error and should stop startup.
func Check(cfg Config) (string, error) {
	engine, err := NewEngine(cfg)
	if err != nil {
		return "", err
	}
	defer engine.Close()

	if _, err := engine.Recognize(blankPNG(), extract.SingleWord); err != nil {
		return "", types.WrapError(types.ErrConfiguration, "tesseract is not usable", err)
	}
	return engine.Version(), nil
}

func blankPNG() []byte {
	img := image.NewGray(image.Rect(0, 0, 32, 16))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	var buf bytes.Buffer
	_ = png.Encode(&buf, img)
	return buf.Bytes()
}
