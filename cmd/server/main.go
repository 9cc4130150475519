// Package main is the entry point for the membership portal server.
//
// main stays minimal: read configuration from the environment, build the
// logger, hand everything to internal/server. All logic lives in the
// imported packages.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/sakif/portal/internal/server"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))

	port := 8080
	if portStr := os.Getenv("PORT"); portStr != "" {
		var err error
		port, err = strconv.Atoi(portStr)
		if err != nil {
			logger.Error("invalid PORT value", slog.String("value", portStr))
			os.Exit(1)
		}
	}

	dbPath := "data/portal.db"
	if envDB := os.Getenv("DB_PATH"); envDB != "" {
		dbPath = envDB
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		logger.Error("failed to create database directory",
			slog.String("dir", filepath.Dir(dbPath)),
			slog.String("error", err.Error()),
		)
		os.Exit(1)
	}

	// SESSION_SECRET signs the session JWTs. Generate one with:
	//   SESSION_SECRET=$(openssl rand -hex 32)
	sessionSecret := os.Getenv("SESSION_SECRET")
	if sessionSecret == "" {
		logger.Error("SESSION_SECRET not set")
		os.Exit(1)
	}

	// Callback URLs default to localhost so the OAuth apps work out of
	// the box in development; production sets them explicitly.
	discordCallback := os.Getenv("DISCORD_CALLBACK_URL")
	if discordCallback == "" {
		discordCallback = fmt.Sprintf("http://localhost:%d/auth/discord/callback", port)
	}
	githubCallback := os.Getenv("GITHUB_CALLBACK_URL")
	if githubCallback == "" {
		githubCallback = fmt.Sprintf("http://localhost:%d/auth/github/callback", port)
	}

	cfg := server.Config{
		Port:   port,
		DBPath: dbPath,

		SessionSecret: sessionSecret,

		DiscordClientID:       os.Getenv("DISCORD_CLIENT_ID"),
		DiscordClientSecret:   os.Getenv("DISCORD_CLIENT_SECRET"),
		DiscordCallbackURL:    discordCallback,
		DiscordBotToken:       os.Getenv("DISCORD_BOT_TOKEN"),
		DiscordGuildID:        os.Getenv("DISCORD_SERVER_ID"),
		DiscordVerifiedRoleID: os.Getenv("DISCORD_VERIFIED_ROLE_ID"),

		GitHubClientID:     os.Getenv("GITHUB_CLIENT_ID"),
		GitHubClientSecret: os.Getenv("GITHUB_CLIENT_SECRET"),
		GitHubCallbackURL:  githubCallback,
	}

	srv, err := server.New(cfg, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
