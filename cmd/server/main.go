package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/jrsteele09/go-signin-service/experience"
	"github.com/jrsteele09/go-signin-service/interaction"
	"github.com/jrsteele09/go-signin-service/internal/config"
	orgrepofake "github.com/jrsteele09/go-signin-service/organizations/repofake"
	"github.com/jrsteele09/go-signin-service/provision"
	"github.com/jrsteele09/go-signin-service/saml"
	samlrepofake "github.com/jrsteele09/go-signin-service/saml/repofake"
	"github.com/jrsteele09/go-signin-service/server"
	"github.com/jrsteele09/go-signin-service/sessionstore"
	userrepofake "github.com/jrsteele09/go-signin-service/users/repofake"
	"github.com/jrsteele09/go-signin-service/verification"
	verificationrepofake "github.com/jrsteele09/go-signin-service/verification/repofake"
)

func main() {
	for {
		if err := run(); err != nil {
			log.Fatalf("Error running server: %s\n", err)
			time.Sleep(1 * time.Second)
		} else {
			break
		}
	}
	log.Printf("Server stopped\n")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Recovered from panic: %v\n", r)
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	c := config.New()
	displayAppname(c.GetAppName())

	handler, err := buildServer(c)
	if err != nil {
		return err
	}

	httpServer := &http.Server{Addr: c.GetPort(), Handler: handler}
	go listenAndServe(httpServer)
	waitForStopSignal()
	returnError = shutdown(httpServer)
	return returnError
}

func buildServer(c config.Config) (*server.Server, error) {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	signer, err := sessionstore.NewTokenSigner([]byte(c.GetTokenSigningKey()), c.GetBaseURL())
	if err != nil {
		return nil, fmt.Errorf("token signer: %w", err)
	}

	var store sessionstore.Store
	var samlSessions saml.SessionRepo
	if addr := c.GetRedisAddr(); addr != "" {
		client := redis.NewClient(&redis.Options{Addr: addr})
		store = sessionstore.NewRedisStore(client, signer, c.GetPostSignInRedirect())
		samlSessions = saml.NewRedisSessionRepo(client)
	} else {
		store = sessionstore.NewInMemoryStore(signer, c.GetPostSignInRedirect())
		samlSessions = saml.NewInMemorySessionRepo()
	}

	userRepo := userrepofake.NewFakeUserRepo()
	orgRepo := orgrepofake.NewFakeOrganizationRepo()

	provisioner, err := provision.New(userRepo, orgRepo, logger)
	if err != nil {
		return nil, fmt.Errorf("provisioner: %w", err)
	}

	deps := interaction.Deps{
		Users:         userRepo,
		Organizations: orgRepo,
		Experience:    experience.NewValidator(experience.Default()),
		Provisioner:   provisioner,
		Store:         store,
		Logger:        logger,
	}

	codes, err := verification.NewCodeService(verificationrepofake.NewFakeCodeRepo(), verification.LogSender{Logger: logger})
	if err != nil {
		return nil, fmt.Errorf("code service: %w", err)
	}

	idpConfig := saml.StaticIdPConfig{IdP: saml.IdentityProvider{
		EntityID:       c.GetSamlEntityID(),
		CertificatePEM: c.GetSamlCertificate(),
		PrivateKeyPEM:  c.GetSamlPrivateKey(),
	}}
	handshake, err := saml.NewHandshake(
		samlrepofake.NewFakeApplicationRepo(),
		samlSessions,
		idpConfig,
		saml.NewOIDCExchanger(c.GetBaseURL()),
		c.GetBaseURL(),
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("saml handshake: %w", err)
	}

	return server.New(c, deps, codes, verificationrepofake.NewFakeMFASecrets(), handshake)
}

func listenAndServe(server *http.Server) error {
	log.Printf("Server listening on %s\n", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func waitForStopSignal() {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
