package routes

import (
	"log"
	"os"
	"strconv"
	"strings"

	_ "loanpay/docs" // This will be auto-generated
	"loanpay/internal/adapter/http/handlers"
	repository2 "loanpay/internal/adapter/persistence/repository"
	"loanpay/internal/infrastructure/database"
	"loanpay/internal/infrastructure/payments"
	"loanpay/internal/usecase"
	"loanpay/internal/usecase/interfaces"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

var router = gin.Default()

const PORT = 8080

// Run will start the server
func Run() {
	setMiddlewares()

	// Swagger documentation endpoint
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	getRoutes()

	err := router.Run(":" + strconv.Itoa(PORT))
	if err != nil {
		log.Fatalf("Failed to startup the application: %v", err.Error())
	}
}

func getRoutes() {
	ddb := database.ConnectDynamoDB()

	paymentRepo := repository2.NewPaymentDynamoRepository(ddb)
	loanRepo := repository2.NewLoanDynamoRepository(ddb)
	ledgerRepo := repository2.NewLedgerDynamoRepository(ddb)

	gateway := buildGateway()
	reconcileUseCase := usecase.NewReconcileUseCase(paymentRepo, loanRepo, ledgerRepo, gateway)
	poller := usecase.NewStatusPoller(gateway, reconcileUseCase)
	refs := payments.NewReferenceGenerator()
	paymentUseCase := usecase.NewPaymentUseCase(paymentRepo, loanRepo, gateway, refs, reconcileUseCase, poller)

	paymentHandler := handlers.NewPaymentHandler(paymentUseCase)
	webhookHandler := handlers.NewWebhookHandler(reconcileUseCase)

	v1 := router.Group("/v1")
	addPingRoutes(v1)
	addPaymentRoutes(v1, paymentHandler, webhookHandler)
}

// buildGateway wires the transport chain: the real client decorated with the
// retry/fallback controller, the sandbox as the fallback. Mock mode promotes
// the sandbox to primary so local runs never touch the real gateway.
func buildGateway() interfaces.IPaymentGateway {
	sandbox := payments.NewSandboxGateway()
	if isGatewayMockEnabled() {
		log.Printf("[payment][routes] gateway mock mode enabled, sandbox is primary")
		return sandbox
	}

	client := payments.NewPesapalClient(payments.PesapalConfig{
		BaseURL:        os.Getenv("GATEWAY_BASE_URL"),
		ConsumerKey:    os.Getenv("GATEWAY_CONSUMER_KEY"),
		ConsumerSecret: os.Getenv("GATEWAY_CONSUMER_SECRET"),
		CallbackURL:    os.Getenv("GATEWAY_CALLBACK_URL"),
		NotificationID: os.Getenv("GATEWAY_NOTIFICATION_ID"),
	})
	return payments.NewRetryController(client, sandbox, client.Tokens())
}

func isGatewayMockEnabled() bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv("PAYMENT_GATEWAY_MOCK")))
	switch v {
	case "1", "true", "yes", "on", "mock":
		return true
	}
	return false
}

func setMiddlewares() {
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		log.Printf("Recovered from panic: %v", recovered)
		c.AbortWithStatus(500)
	}))
}
