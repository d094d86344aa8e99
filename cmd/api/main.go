package main

import (
	"context"
	"log"
	"os"

	"cloud.google.com/go/firestore"
	fbapp "firebase.google.com/go/v4"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"google.golang.org/api/option"

	"annoncia/internal/adapter/api"
	"annoncia/internal/adapter/api/handler"
	apimiddleware "annoncia/internal/adapter/api/middleware"
	"annoncia/internal/adapter/api/router"
	"annoncia/internal/adapter/repository"
	"annoncia/internal/infrastructure/firebase"
	"annoncia/internal/infrastructure/notification"
	"annoncia/internal/infrastructure/storage"
	"annoncia/internal/infrastructure/websocket"
	"annoncia/internal/usecase"
	"annoncia/pkg/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()

	var opts []option.ClientOption
	credentialsPath := os.Getenv("FIREBASE_SERVICE_ACCOUNT_PATH")
	if serviceAccountJSON := os.Getenv("FIREBASE_SERVICE_ACCOUNT_JSON"); serviceAccountJSON != "" {
		opts = append(opts, option.WithCredentialsJSON([]byte(serviceAccountJSON)))
		credentialsPath = ""
	} else if credentialsPath != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsPath))
	}

	firebaseApp, err := fbapp.NewApp(ctx, &fbapp.Config{ProjectID: cfg.FirebaseProject}, opts...)
	if err != nil {
		log.Fatalf("Failed to initialize Firebase: %v", err)
	}

	firebaseAuth, err := firebaseApp.Auth(ctx)
	if err != nil {
		log.Fatalf("Failed to initialize Firebase Auth: %v", err)
	}

	messagingClient, err := firebaseApp.Messaging(ctx)
	if err != nil {
		log.Fatalf("Failed to initialize Firebase Messaging: %v", err)
	}

	firestoreClient, err := firestore.NewClient(ctx, cfg.FirebaseProject, opts...)
	if err != nil {
		log.Fatalf("Failed to create Firestore client: %v", err)
	}
	defer firestoreClient.Close()

	storageClient, err := storage.NewCloudStorageClient(ctx, cfg.StorageBucket, credentialsPath)
	if err != nil {
		log.Fatalf("Failed to initialize Cloud Storage: %v", err)
	}
	defer storageClient.Close()

	userRepo := repository.NewFirestoreUserRepository(firestoreClient)
	adRepo := repository.NewFirestoreAdRepository(firestoreClient)
	orgRepo := repository.NewFirestoreOrganisationRepository(firestoreClient)
	chatRepo := repository.NewFirestoreChatRepository(firestoreClient)

	wsManager := websocket.NewManager()
	wsManager.Start(ctx)

	fcmClient := notification.NewFCMClient(messagingClient)
	authClient := firebase.NewAuthClient(firebaseAuth)

	chatUseCase := usecase.NewChatUseCase(chatRepo, userRepo, adRepo, orgRepo, wsManager, fcmClient, cfg.PushEnabled)
	userUseCase := usecase.NewUserUseCase(userRepo)

	e := echo.New()

	e.Use(echomiddleware.Logger())
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())

	e.Validator = api.NewValidator()

	authMiddleware := apimiddleware.NewAuthMiddleware(authClient)

	chatHandler := handler.NewChatHandler(chatUseCase)
	userHandler := handler.NewUserHandler(userUseCase)
	fileHandler := handler.NewFileHandler(storageClient)
	wsHandler := handler.NewWebSocketHandler(wsManager, authMiddleware, chatRepo, chatUseCase)

	router.Setup(e, authMiddleware, chatHandler, userHandler, fileHandler, wsHandler)

	log.Printf("Starting server on port %s...", cfg.ServerPort)
	e.Logger.Fatal(e.Start(":" + cfg.ServerPort))
}
