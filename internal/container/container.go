package container

import (
	"io"
	"log/slog"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/joshua-takyi/staybook/internal/config"
	"github.com/joshua-takyi/staybook/internal/helpers"
	"github.com/joshua-takyi/staybook/internal/models"
	"github.com/joshua-takyi/staybook/internal/payments"
	"github.com/joshua-takyi/staybook/internal/queue"
	"github.com/joshua-takyi/staybook/internal/services"
	"github.com/redis/go-redis/v9"
	"github.com/supabase-community/supabase-go"
	"go.mongodb.org/mongo-driver/mongo"
)

// Container holds all application dependencies
type Container struct {
	Config *config.Config
	Logger *slog.Logger
	Redis  *redis.Client

	Tokens   *helpers.TokenValidator
	Mongo    *models.MongodbRepo
	Profiles models.ProfileRepo
	Events   models.EventPublisher

	RoomService              *services.RoomService
	ReservationService       *services.ReservationService
	SharedReservationService *services.SharedReservationService
	ConnectionService        *services.ConnectionService
	PaymentService           *services.PaymentService
}

// NewContainer creates a new dependency injection container. cld and rdb
// may be nil; the features that use them are then disabled.
func NewContainer(
	cfg *config.Config,
	logger *slog.Logger,
	cld *cloudinary.Cloudinary,
	rdb *redis.Client,
	supabaseClient *supabase.Client,
	mongoDBClient *mongo.Client,
) *Container {
	// Initialize repositories
	supa := models.SupabaseNewRepo(supabaseClient, cfg.SupabaseURL, cfg.SupabaseAnonKey)
	mdb := models.MongodbNewRepo(mongoDBClient, cfg.MongoDBDatabase)

	var events models.EventPublisher = models.NopPublisher{}
	if cfg.NotificationsEnabled() {
		events = queue.NewPublisher(cfg.RabbitMQURL, cfg.EventsQueue, logger)
	}

	var uploader services.ImageUploader
	if cld != nil {
		uploader = helpers.CloudinaryUploader{Cld: cld}
	}

	var gateway services.PaymentGateway
	if cfg.PaymentsEnabled() {
		gateway = payments.NewStripeGateway(cfg.StripeSecretKey, cfg.StripeCurrency)
	}

	availability := services.NewAvailabilityReconciler(mdb, logger)

	return &Container{
		Config:   cfg,
		Logger:   logger,
		Redis:    rdb,
		Tokens:   helpers.NewTokenValidator(cfg.SupabaseURL, cfg.SupabaseJWTSecret, logger),
		Mongo:    mdb,
		Profiles: supa,
		Events:   events,

		RoomService:              services.NewRoomService(mdb, uploader, logger),
		ReservationService:       services.NewReservationService(mdb, mdb, mdb, mdb, availability, events, logger),
		SharedReservationService: services.NewSharedReservationService(mdb, mdb, mdb, events, logger),
		ConnectionService:        services.NewConnectionService(mdb, events, logger),
		PaymentService:           services.NewPaymentService(gateway, mdb, mdb, logger),
	}
}

// Notifier builds the consumer side handler that emails event recipients.
func (c *Container) Notifier() *queue.Notifier {
	mailer := queue.NewSMTPMailer(c.Config.SMTPHost, c.Config.SMTPPort, c.Config.SMTPUser, c.Config.SMTPPassword, c.Config.SMTPFrom)
	return queue.NewNotifier(c.Profiles, mailer, c.Logger)
}

// Close releases the token refresher and the event publisher's connection.
func (c *Container) Close() {
	c.Tokens.Close()
	if closer, ok := c.Events.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			c.Logger.Warn("failed to close event publisher", "error", err)
		}
	}
}
