package commands

import (
	"github.com/effective-security/academix/config"
	"github.com/effective-security/academix/discordbot"
	"github.com/effective-security/academix/pkg/llmfactory"
	"github.com/effective-security/academix/server"
	"github.com/effective-security/academix/store"
	"github.com/spf13/cobra"
)

// ChatAgentName is the agent_models key of the purpose chatbot
const ChatAgentName = "chatbot"

func newDiscordCmd(f *flags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "discord",
		Short: "Discord bots",
	}

	task := &cobra.Command{
		Use:   "task",
		Short: "Run the task bot with the /echo and /task commands",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := f.loadConfig(config.SectionDiscord)
			if err != nil {
				return err
			}
			client, err := server.NewClient(cfg.Discord.AIAPIURL)
			if err != nil {
				return err
			}

			ctx, stop := signalContext(cmd)
			defer stop()
			return discordbot.Run(ctx, cfg.Discord.Token, discordbot.NewTaskBot(client, cfg.Discord.GuildID))
		},
	}

	chat := &cobra.Command{
		Use:   "chat",
		Short: "Run the purpose chatbot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := f.loadConfig(config.SectionChat)
			if err != nil {
				return err
			}
			factory, err := llmfactory.Load(cfg.LLM)
			if err != nil {
				return err
			}
			model, err := factory.AgentModel(ChatAgentName)
			if err != nil {
				return err
			}

			ms := store.NewMemoryStore()
			if cfg.Redis.URL != "" {
				client, err := newRedisClient(cfg)
				if err != nil {
					return err
				}
				ms = store.NewRedisStore(client, cfg.Redis.Prefix)
			}

			ctx, stop := signalContext(cmd)
			defer stop()
			return discordbot.Run(ctx, cfg.Discord.Token, discordbot.NewChatBot(model, ms))
		},
	}

	cmd.AddCommand(task, chat)
	return cmd
}
