package main

import (
	"log/slog"
	"os"
	"time"

	"github.com/sushihentaime/blogsphere/internal/blogservice"
	"github.com/sushihentaime/blogsphere/internal/common"
	"github.com/sushihentaime/blogsphere/internal/credential"
	"github.com/sushihentaime/blogsphere/internal/gate"
	"github.com/sushihentaime/blogsphere/internal/mailservice"
	"github.com/sushihentaime/blogsphere/internal/userservice"
)

type application struct {
	config      *Config
	logger      *slog.Logger
	userService *userservice.UserService
	blogService *blogservice.BlogService
	mailService *mailservice.MailService
	broker      *common.MessageBroker
	gate        *gate.Policy
	limiter     *clientLimiter
}

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	cfg, err := loadConfig(".env")
	if err != nil {
		logger.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	db, err := common.NewDB(cfg.DSN(), 25, 25, 15*time.Minute)
	if err != nil {
		logger.Error("failed to connect to the database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer common.CloseDB(db)

	migrator, err := common.Migrate(cfg.MigrationsPath, cfg.DSN())
	if err != nil {
		logger.Error("failed to run migrations", slog.String("error", err.Error()))
		os.Exit(1)
	}
	migrator.Close()

	broker, err := common.NewMessageBroker(cfg.AMQPURI())
	if err != nil {
		logger.Error("failed to connect to the message broker", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer broker.Close()

	err = common.SetupUserExchange(broker)
	if err != nil {
		logger.Error("failed to setup the user exchange", slog.String("error", err.Error()))
		os.Exit(1)
	}

	rdb, err := common.NewRedis(cfg.Redis.Addr, cfg.Redis.Password)
	if err != nil {
		logger.Error("failed to connect to redis", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer rdb.Close()

	users := userservice.NewDBModel(db)
	credentials, err := credential.New(cfg.Credential.AccessSecret, cfg.Credential.RefreshSecret, users)
	if err != nil {
		logger.Error("failed to create the credential store", slog.String("error", err.Error()))
		os.Exit(1)
	}

	blogService := blogservice.NewBlogService(blogservice.NewBlogModel(db), common.NewCache(5*time.Minute, 10*time.Minute), logger)
	limiter := userservice.NewSignInLimiter(rdb, cfg.SignIn.MaxAttempts, cfg.SignIn.Cooldown)

	app := &application{
		config:      cfg,
		logger:      logger,
		userService: userservice.NewUserService(users, broker, credentials, limiter, blogService, logger),
		blogService: blogService,
		mailService: mailservice.NewMailService(broker, cfg.Mail.Host, cfg.Mail.User, cfg.Mail.Password, cfg.Mail.Sender, cfg.Mail.Port, logger),
		broker:      broker,
		gate:        gate.DefaultPolicy(),
		limiter:     newClientLimiter(cfg.Limiter.RPS, cfg.Limiter.Burst, cfg.Limiter.Enabled),
	}

	err = app.mailService.SendWelcomeEmails()
	if err != nil {
		logger.Error("failed to start the mail consumer", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer app.mailService.Close()

	err = app.serve(cfg.Port)
	if err != nil {
		logger.Error("failed to start the server", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
