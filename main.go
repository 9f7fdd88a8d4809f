package main

import (
	"announcebot/internal/adapters/handler"
	"announcebot/internal/adapters/metrics"
	"announcebot/internal/adapters/sender"
	"announcebot/internal/core/domain/command"
	"announcebot/internal/core/service"
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

func main() {
	log.Info().Msg("starting announcebot...")

	viper.AddConfigPath(".")
	viper.SetConfigName("config")
	viper.SetConfigType("toml")
	viper.SetEnvPrefix("announcebot")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("bot.log_level", "info")
	viper.SetDefault("flow.idle_timeout", "180s")
	viper.SetDefault("handler.timeout", "10s")

	log.Info().Msg("reading config file...")
	err := viper.ReadInConfig()
	if err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			log.Fatal().Err(err).Msg("could not read config file")
		}
		log.Info().Msg("no config file, using environment")
	}

	var logLevel zerolog.Level

	switch viper.GetString("bot.log_level") {
	case "info":
		logLevel = zerolog.InfoLevel
	case "debug":
		logLevel = zerolog.DebugLevel
	case "trace":
		logLevel = zerolog.TraceLevel
	default:
		logLevel = zerolog.InfoLevel
	}

	zerolog.SetGlobalLevel(logLevel)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	token := viper.GetString("discord.bot_token")
	if token == "" {
		log.Fatal().Msg("discord.bot_token not configured")
	}

	session, err := discordgo.New("Bot " + token)
	if err != nil {
		log.Panic().Err(err).Msg("failed initializing discord session")
	}

	session.Identify.Intents = discordgo.IntentsGuilds

	s := sender.NewDiscord(session)
	recorder := metrics.NewPrometheus()

	idleTimeout, err := time.ParseDuration(viper.GetString("flow.idle_timeout"))
	if err != nil {
		log.Panic().Err(err).Msg("invalid idle timeout for flows in config")
	}

	flow := service.NewAnnounceFlow(service.AnnounceFlowParams{
		Gateway:     s,
		Recorder:    recorder,
		IdleTimeout: idleTimeout,
	})

	auth, err := service.NewAuthorizer(s)
	if err != nil {
		log.Panic().Err(err).Msg("failed initializing authorizer")
	}

	commandRegistry := &command.Registry{}
	commandRegistry.Register(command.NewAnnounce(command.AnnounceParams{
		Flow:     flow,
		Notifier: s,
		Auth:     auth,
		Command:  "sendmessage",
	}))

	handlerTimeout, err := time.ParseDuration(viper.GetString("handler.timeout"))
	if err != nil {
		log.Panic().Err(err).Msg("invalid timeout for handler in config")
	}

	interactionHandler := handler.NewInteraction(commandRegistry, flow, s, handlerTimeout)

	guildID := viper.GetString("discord.guild_id")

	session.AddHandler(func(_ *discordgo.Session, r *discordgo.Ready) {
		s.SetBotUser(r.User.ID)

		for _, spec := range commandRegistry.Specs() {
			if err := s.RegisterCommand(ctx, r.Application.ID, guildID, spec); err != nil {
				log.Err(err).Str("command", spec.Name).Msg("failed to register command")
			}
		}

		log.Info().Str("user", r.User.Username).Str("id", r.User.ID).Msg("logged in, commands synced")
	})
	session.AddHandler(interactionHandler.Handle)

	if err := session.Open(); err != nil {
		log.Panic().Err(err).Msg("failed opening discord connection")
	}

	if addr := viper.GetString("metrics.address"); addr != "" {
		go func() {
			if err := recorder.Listen(ctx, addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Err(err).Msg("metrics listener failed")
			}
		}()
	}

	log.Info().Msg("bot listening")
	<-ctx.Done()

	log.Info().Msg("shutting down")
	flow.Shutdown()

	if err := session.Close(); err != nil {
		log.Err(err).Msg("failed closing discord connection")
	}
}
