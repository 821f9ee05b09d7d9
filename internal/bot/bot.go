package bot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"signbot/internal/domain"
	"signbot/internal/infra/logging"
	"signbot/internal/infra/metrics"
)

// Messenger is the part of the Telegram Bot API the bot needs.
type Messenger interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
	SendDocument(ctx context.Context, chatID int64, filename string, r io.Reader) error
	GetFile(ctx context.Context, fileID string) (string, error)
	Download(ctx context.Context, filePath string, maxBytes int64) ([]byte, error)
}

// Uploader stores a signed document and returns its storage id.
type Uploader interface {
	Upload(ctx context.Context, name string, content []byte) (string, error)
}

// Ledger records accepted submissions.
type Ledger interface {
	Record(ctx context.Context, s domain.Submission) (domain.Submission, error)
}

// Converter turns a photographed page into a PDF.
type Converter interface {
	ImageToPDF(ctx context.Context, img []byte) ([]byte, error)
}

// Config holds the document settings of the bot.
type Config struct {
	TemplatePath string
	Suffix       string
	MaxFileBytes int64
}

// Deps are the collaborators of a Bot. Ledger, Converter and Metrics are optional.
type Deps struct {
	Messenger Messenger
	Uploader  Uploader
	Ledger    Ledger
	Converter Converter
	Metrics   *metrics.Metrics
}

// Bot reacts to Telegram updates: it hands out the document template and
// stores signed copies sent back by users.
type Bot struct {
	cfg  Config
	deps Deps
}

// New creates a Bot.
func New(cfg Config, deps Deps) *Bot {
	return &Bot{cfg: cfg, deps: deps}
}

// HandleUpdate dispatches one update. Failures are reported to the user
// where it makes sense and logged; they are never returned.
func (b *Bot) HandleUpdate(ctx context.Context, u domain.Update) {
	msg := u.Message
	if msg == nil {
		b.count("empty")
		return
	}
	chatID := msg.Chat.ID

	switch {
	case msg.Text != nil:
		cmd := domain.ParseCommand(*msg.Text)
		b.count(cmd.String())
		switch cmd {
		case domain.CommandStart:
			b.send(ctx, chatID, startText(b.cfg.Suffix))
		case domain.CommandTemplate:
			b.sendTemplate(ctx, chatID)
		default:
			b.send(ctx, chatID, usageText)
		}
	case msg.HasFile():
		b.count("file")
		b.handleFile(ctx, msg)
	default:
		b.count("other")
		b.send(ctx, chatID, onlyCommandsText)
	}
}

func (b *Bot) count(kind string) {
	if b.deps.Metrics != nil {
		b.deps.Metrics.Updates.WithLabelValues(kind).Inc()
	}
}

func (b *Bot) send(ctx context.Context, chatID int64, text string) {
	if err := b.deps.Messenger.SendMessage(ctx, chatID, text); err != nil {
		logging.Error("Failed to sendMessage", "chat_id", chatID, "error", err)
	}
}

func (b *Bot) sendTemplate(ctx context.Context, chatID int64) {
	b.send(ctx, chatID, templateHintText)
	if err := b.sendTemplateFile(ctx, chatID); err != nil {
		if errors.Is(err, domain.ErrTemplateMissing) {
			logging.Warn("Template file is missing", "path", b.cfg.TemplatePath)
			b.send(ctx, chatID, templateMissingText)
			return
		}
		logging.Error("Failed to sendDocument", "chat_id", chatID, "error", err)
	}
}

func (b *Bot) sendTemplateFile(ctx context.Context, chatID int64) error {
	f, err := os.Open(b.cfg.TemplatePath)
	if errors.Is(err, os.ErrNotExist) {
		return domain.ErrTemplateMissing
	}
	if err != nil {
		return fmt.Errorf("open template: %w", err)
	}
	defer f.Close()
	return b.deps.Messenger.SendDocument(ctx, chatID, filepath.Base(b.cfg.TemplatePath), f)
}

// incoming is a file pulled from Telegram.
type incoming struct {
	content []byte
	ext     string
	source  domain.Source
}

func (b *Bot) handleFile(ctx context.Context, msg *domain.Message) {
	chatID := msg.Chat.ID

	if strings.TrimSpace(msg.Caption) == "" {
		b.send(ctx, chatID, missingCaptionText(b.cfg.Suffix))
		return
	}
	name := domain.SanitizeName(msg.Caption)
	logging.Info("Using name from caption", "chat_id", chatID, "name", name)

	file, err := b.fetch(ctx, msg)
	switch {
	case errors.Is(err, domain.ErrUnrecognizedFile):
		b.send(ctx, chatID, unrecognizedFileText)
		return
	case errors.Is(err, domain.ErrFileTooLarge):
		logging.Warn("Incoming file too large", "chat_id", chatID, "error", err)
		b.send(ctx, chatID, fileTooLargeText(b.cfg.MaxFileBytes))
		return
	case err != nil:
		b.fail(ctx, chatID, "Failed to download file from Telegram", err)
		return
	}

	if file.source == domain.SourcePhoto && b.deps.Converter != nil {
		if pdf, err := b.deps.Converter.ImageToPDF(ctx, file.content); err != nil {
			logging.Warn("Photo to PDF conversion failed, storing original", "chat_id", chatID, "error", err)
		} else {
			file.content, file.ext = pdf, ".pdf"
		}
	}

	filename := domain.SubmissionFilename(name, b.cfg.Suffix, file.ext)
	driveID, err := b.deps.Uploader.Upload(ctx, filename, file.content)
	if err != nil {
		b.fail(ctx, chatID, "Failed to upload to Drive", err)
		return
	}
	b.send(ctx, chatID, savedText)

	if b.deps.Metrics != nil {
		b.deps.Metrics.Submissions.WithLabelValues(string(file.source)).Inc()
	}
	b.record(ctx, msg, domain.Submission{
		ChatID:      chatID,
		SignerName:  name,
		Filename:    filename,
		DriveFileID: driveID,
		Size:        int64(len(file.content)),
		Source:      file.source,
	})
}

func (b *Bot) fail(ctx context.Context, chatID int64, msg string, err error) {
	logging.Error(msg, "chat_id", chatID, "error", err)
	if b.deps.Metrics != nil {
		b.deps.Metrics.UploadFailures.Inc()
	}
	b.send(ctx, chatID, saveFailedText)
}

func (b *Bot) record(ctx context.Context, msg *domain.Message, s domain.Submission) {
	if b.deps.Ledger == nil {
		return
	}
	if msg.From != nil {
		s.UserID = msg.From.ID
		s.Username = msg.From.Username
	}
	if _, err := b.deps.Ledger.Record(ctx, s); err != nil {
		logging.Error("Failed to record submission", "chat_id", s.ChatID, "filename", s.Filename, "error", err)
	}
}

// fetch downloads the document or the largest photo of msg.
func (b *Bot) fetch(ctx context.Context, msg *domain.Message) (incoming, error) {
	var (
		fileID       string
		originalName string
		source       domain.Source
	)
	switch {
	case msg.Document != nil:
		if msg.Document.FileID == "" {
			return incoming{}, domain.ErrUnrecognizedFile
		}
		if b.cfg.MaxFileBytes > 0 && msg.Document.FileSize > b.cfg.MaxFileBytes {
			return incoming{}, fmt.Errorf("%w: declared %d bytes", domain.ErrFileTooLarge, msg.Document.FileSize)
		}
		fileID, originalName, source = msg.Document.FileID, msg.Document.FileName, domain.SourceDocument
	default:
		photo, ok := domain.LargestPhoto(msg.Photo)
		if !ok || photo.FileID == "" {
			return incoming{}, domain.ErrUnrecognizedFile
		}
		fileID, source = photo.FileID, domain.SourcePhoto
	}

	path, err := b.deps.Messenger.GetFile(ctx, fileID)
	if err != nil {
		return incoming{}, fmt.Errorf("get file: %w", err)
	}
	content, err := b.deps.Messenger.Download(ctx, path, b.cfg.MaxFileBytes)
	if err != nil {
		return incoming{}, err
	}
	return incoming{
		content: content,
		ext:     domain.FileExtension(originalName, source == domain.SourcePhoto, path),
		source:  source,
	}, nil
}
