package app

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"stockflow/internal/config"
	"stockflow/internal/domain/access"
	"stockflow/internal/domain/notify"
	"stockflow/internal/domain/procurement"
	"stockflow/internal/infrastructure/cache"
	"stockflow/internal/infrastructure/delivery"
	"stockflow/internal/infrastructure/identity"
	"stockflow/internal/infrastructure/objectstore"
	"stockflow/pkg/logger"
)

// Infra holds the optional external adapters. A nil field means the
// channel is not configured and the dependent feature is disabled.
type Infra struct {
	Mailer   *delivery.Mailer
	Telegram *delivery.TelegramClient
	Photos   *objectstore.Store
	Redis    *redis.Client
	PDF      *delivery.PDFRenderer
}

// NewInfra builds every adapter whose settings are present. Redis and
// object storage fail hard when enabled but unreachable.
func NewInfra(ctx context.Context, cfg *config.Config) (*Infra, error) {
	log := logger.Default().WithComponent("infra")
	infra := &Infra{
		PDF: delivery.NewPDFRenderer(delivery.PDFConfig{
			Company: cfg.PDF.Company,
			FontDir: cfg.PDF.FontDir,
		}),
	}

	if cfg.SMTP.Host != "" {
		mailer, err := delivery.NewMailer(delivery.MailConfig{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
			Company:  cfg.PDF.Company,
		})
		if err != nil {
			return nil, fmt.Errorf("smtp: %w", err)
		}
		infra.Mailer = mailer
	} else {
		log.Warn("smtp not configured, email delivery disabled")
	}

	if cfg.Telegram.BotToken != "" {
		tg, err := delivery.NewTelegramClient(delivery.TelegramConfig{
			BotToken: cfg.Telegram.BotToken,
			APIURL:   cfg.Telegram.APIURL,
			Timeout:  cfg.Telegram.Timeout,
		})
		if err != nil {
			return nil, fmt.Errorf("telegram: %w", err)
		}
		infra.Telegram = tg
	} else {
		log.Warn("telegram not configured, chat delivery disabled")
	}

	if cfg.Storage.Endpoint != "" {
		store, err := objectstore.New(objectstore.Config{
			Endpoint:  cfg.Storage.Endpoint,
			AccessKey: cfg.Storage.AccessKey,
			SecretKey: cfg.Storage.SecretKey,
			Bucket:    cfg.Storage.Bucket,
			UseSSL:    cfg.Storage.UseSSL,
			PublicURL: cfg.Storage.PublicURL,
		})
		if err != nil {
			return nil, err
		}
		if err := store.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		infra.Photos = store
	} else {
		log.Warn("object storage not configured, receiving photos are ignored")
	}

	if cfg.Redis.Enabled {
		client, err := cache.NewRedis(ctx, cache.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
		})
		if err != nil {
			return nil, err
		}
		infra.Redis = client
	}

	return infra, nil
}

// Senders returns the configured purchase order delivery channels.
func (i *Infra) Senders() map[procurement.Method]procurement.Sender {
	senders := make(map[procurement.Method]procurement.Sender, 2)
	if i.Mailer != nil {
		senders[procurement.MethodEmail] = i.Mailer
	}
	if i.Telegram != nil {
		senders[procurement.MethodTelegram] = i.Telegram
	}
	return senders
}

// PhotoStore returns the receiving photo store or nil.
func (i *Infra) PhotoStore() procurement.PhotoStore {
	if i.Photos == nil {
		return nil
	}
	return i.Photos
}

// Dispatcher fans notifications out to the configured channels.
func (i *Infra) Dispatcher(cfg *config.Config) *notify.Dispatcher {
	var chat notify.ChatSender
	if i.Telegram != nil {
		chat = i.Telegram
	}
	var mail notify.MailSender
	if i.Mailer != nil {
		mail = i.Mailer
	}
	return notify.NewDispatcher(chat, mail, notify.DispatcherConfig{
		ChatID: cfg.Telegram.NotifyChatID,
		Emails: cfg.Notify.Emails,
	})
}

// RoleResolver returns the identity service client behind a role cache,
// redis-backed when redis is enabled.
func (i *Infra) RoleResolver(cfg *config.Config) (access.RoleResolver, error) {
	client, err := identity.NewClient(identity.Config{
		URL:     cfg.Identity.URL,
		Project: cfg.Identity.Project,
		Timeout: cfg.Identity.Timeout,
	})
	if err != nil {
		return nil, err
	}
	var store identity.RoleStore = cache.NewMemoryStore()
	if i.Redis != nil {
		store = i.Redis
	}
	return identity.NewCachedResolver(client, store, cfg.Identity.CacheTTL), nil
}

// Close releases adapter connections.
func (i *Infra) Close() {
	if i.Redis != nil {
		_ = i.Redis.Close()
	}
}
