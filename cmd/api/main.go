package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"bookbazar/internal/config"
	"bookbazar/internal/handler"
	"bookbazar/internal/infra/db"
	"bookbazar/internal/infra/lock"
	"bookbazar/internal/infra/mail"
	"bookbazar/internal/infra/mongodb"
	"bookbazar/internal/infra/payment"
	infraRepo "bookbazar/internal/infra/repository"
	"bookbazar/internal/server"
	"bookbazar/internal/usecase"
	auth "bookbazar/internal/usecase/auth_usecase"

	"github.com/labstack/gommon/log"
)

func main() {
	config.LoadDotEnv(".env", "../.env")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	//DB接続
	gormDB, err := db.Connect(cfg.PostgresDSN())
	if err != nil {
		log.Fatalf("%v", err)
	}
	if err := db.Migrate(gormDB); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	// reviewsはMongo
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	mongoClient, err := mongodb.Connect(connectCtx, cfg.MongoURI)
	if err != nil {
		cancel()
		log.Fatalf("%v", err)
	}
	mongoDB := mongoClient.Database(cfg.MongoDB)
	if err := mongodb.EnsureReviewIndexes(connectCtx, mongoDB); err != nil {
		cancel()
		log.Fatalf("review indexes: %v", err)
	}
	cancel()
	defer func() {
		if err := mongoClient.Disconnect(context.Background()); err != nil {
			log.Warnf("mongo disconnect: %v", err)
		}
	}()

	redisClient := lock.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	defer func() { _ = redisClient.Close() }()

	//Repository（GORM実装）生成
	userRepo := infraRepo.NewUserGormRepository(gormDB)
	rtRepo := infraRepo.NewRefreshTokenRepository(gormDB)
	bookRepo := infraRepo.NewBookGormRepository(gormDB)
	cartRepo := infraRepo.NewCartItemGormRepository(gormDB)
	orderRepo := infraRepo.NewOrderGormRepository(gormDB)
	orderItemRepo := infraRepo.NewOrderItemGormRepository(gormDB)
	addressRepo := infraRepo.NewAddressGormRepository(gormDB)
	auditRepo := infraRepo.NewAuditLogGormRepository(gormDB)
	paymentRepo := infraRepo.NewPaymentGormRepository(gormDB)
	txm := infraRepo.NewTxManagerGorm(gormDB)
	reviewRepo := mongodb.NewReviewMongoRepository(mongoDB)

	//外部サービス
	var mailer usecase.Mailer = mail.LogMailer{}
	if strings.TrimSpace(cfg.PostmarkServerToken) != "" {
		mailer = mail.NewPostmarkMailer(cfg.PostmarkServerToken, cfg.EmailSender, cfg.BaseURL)
	} else {
		log.Warnf("POSTMARK_SERVER_TOKEN is empty, emails are only logged")
	}
	gateway := payment.NewRazorpayGateway(cfg.RazorpayKeyID, cfg.RazorpayKeySecret)
	locker := lock.NewRedisLocker(redisClient)

	//usecaseに渡す部品
	idGen := auth.UUIDGenerator{}
	clock := auth.SystemClock{}
	hasher := auth.NewBcryptPasswordHasher(12)
	verifier := auth.NewBcryptPasswordVerifier()
	issuer := auth.NewJWTIssuer(cfg.JWTSecret, cfg.AccessTokenTTL)

	//Usecase生成
	authUC := usecase.NewAuthUsecase(userRepo, rtRepo, auditRepo, hasher, verifier, issuer, idGen, clock, mailer, cfg.RefreshTokenTTL)
	bookUC := usecase.NewBookUsecase(bookRepo, txm, clock)
	cartUC := usecase.NewCartUsecase(cartRepo, bookRepo)
	orderUC := usecase.NewOrderUsecase(txm, orderRepo, orderItemRepo, addressRepo, userRepo, locker, mailer, idGen, clock)
	adminOrderUC := usecase.NewAdminOrderUsecase(txm, orderRepo, orderItemRepo, auditRepo, clock)
	addressUC := usecase.NewAddressUsecase(addressRepo, txm, clock)
	reviewUC := usecase.NewReviewUsecase(reviewRepo, bookRepo, userRepo, clock)
	paymentUC := usecase.NewPaymentUsecase(orderRepo, paymentRepo, gateway, clock)

	//Handler生成
	e := server.New(cfg, userRepo, server.Handlers{
		Health:     handler.NewHealthHandler(gormDB),
		Auth:       handler.NewAuthHandler(authUC, cfg.CookieSecure),
		Book:       handler.NewBookHandler(bookUC),
		Cart:       handler.NewCartHandler(cartUC),
		Order:      handler.NewOrderHandler(orderUC),
		AdminOrder: handler.NewAdminOrderHandler(adminOrderUC),
		Address:    handler.NewAddressHandler(addressUC),
		Review:     handler.NewReviewHandler(reviewUC),
		Payment:    handler.NewPaymentHandler(paymentUC),
	})

	addr := cfg.Port
	if !strings.HasPrefix(addr, ":") {
		addr = ":" + addr
	}

	log.Infof("listening on %s", addr)
	if err := server.Start(ctx, e, addr); err != nil {
		log.Fatalf("server: %v", err)
	}
}
