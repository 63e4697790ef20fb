package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ochronus/gosendspace/internal/app"
	"github.com/ochronus/gosendspace/internal/config"
	"github.com/ochronus/gosendspace/internal/services/sendspace"
	"github.com/ochronus/gosendspace/internal/utils"
	"github.com/spf13/cobra"
)

const version = "0.1.0"

var (
	configPath string
	sessionKey string
	username   string
	loglevel   string

	uploadFlags struct {
		description    string
		filePassword   string
		folderID       string
		recipientEmail string
		notify         bool
		redirectURL    string
		userAgent      string
		target         string
	}
)

func main() {
	// Get default config path
	defaultConfigPath, err := config.DefaultConfigPath()
	if err != nil {
		defaultConfigPath = "./config.toml"
	}

	// Root command
	rootCmd := &cobra.Command{
		Use:           "gosendspace",
		Short:         "Upload files to sendspace.com",
		Long:          "Command line client for the sendspace.com REST API. Logs in, uploads a file and prints its download URL.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", defaultConfigPath, "Path to config file")
	rootCmd.PersistentFlags().StringVar(&loglevel, "loglevel", "", "Override the configured log level")

	// Upload command
	uploadCmd := &cobra.Command{
		Use:   "upload FILE",
		Short: "Upload a file and print its URL",
		Args:  cobra.ExactArgs(1),
		RunE:  runUpload,
	}
	addSessionFlags(uploadCmd)
	uploadCmd.Flags().StringVar(&uploadFlags.description, "description", "", "File description")
	uploadCmd.Flags().StringVar(&uploadFlags.filePassword, "file-password", "", "Password protecting the download")
	uploadCmd.Flags().StringVar(&uploadFlags.folderID, "folder-id", "", "Destination folder id")
	uploadCmd.Flags().StringVar(&uploadFlags.recipientEmail, "recipient-email", "", "Email the download link to this address")
	uploadCmd.Flags().BoolVar(&uploadFlags.notify, "notify", false, "Notify the uploader by email")
	uploadCmd.Flags().StringVar(&uploadFlags.redirectURL, "redirect-url", "", "URL to redirect to after the upload")
	uploadCmd.Flags().StringVar(&uploadFlags.userAgent, "user-agent", "", "User-Agent sent with the upload")
	uploadCmd.Flags().StringVar(&uploadFlags.target, "target", "", "Override the upload URL returned by the API")

	// Login command
	loginCmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and print a session key",
		Args:  cobra.NoArgs,
		RunE:  runLogin,
	}
	loginCmd.Flags().StringVarP(&username, "username", "u", "", "Sendspace username")

	// Check-session command
	checkSessionCmd := &cobra.Command{
		Use:   "check-session",
		Short: "Validate a session key",
		Args:  cobra.NoArgs,
		RunE:  runCheckSession,
	}
	checkSessionCmd.Flags().StringVar(&sessionKey, "session-key", "", "Session key to validate")

	// Logout command
	logoutCmd := &cobra.Command{
		Use:   "logout",
		Short: "End a session",
		Args:  cobra.NoArgs,
		RunE:  runLogout,
	}
	logoutCmd.Flags().StringVar(&sessionKey, "session-key", "", "Session key to end")

	// Generate-config command
	generateConfigCmd := &cobra.Command{
		Use:   "generate-config API_KEY [USERNAME]",
		Short: "Generate config",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			user := ""
			if len(args) > 1 {
				user = args[1]
			}
			return utils.GenerateConfig(configPath, args[0], user)
		},
	}

	// Version command
	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("gosendspace version %s\n", version)
		},
	}

	rootCmd.AddCommand(uploadCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(checkSessionCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(generateConfigCmd)
	rootCmd.AddCommand(versionCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func addSessionFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&username, "username", "u", "", "Sendspace username")
	cmd.Flags().StringVar(&sessionKey, "session-key", "", "Reuse an existing session key instead of logging in")
}

// buildContainer loads and validates configuration, applies flag overrides
// and builds the container.
func buildContainer() (*app.Container, error) {
	cfg, err := config.LoadOrDefault(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if sessionKey != "" {
		cfg.SessionKey = sessionKey
	}
	if username != "" {
		cfg.Username = username
		// An explicit user wins over a stored session
		if sessionKey == "" {
			cfg.SessionKey = ""
		}
	}
	if loglevel != "" {
		cfg.Loglevel = loglevel
	}
	if key := os.Getenv("SENDSPACE_API_KEY"); cfg.APIKey == "" && key != "" {
		cfg.APIKey = key
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	container, err := app.NewContainer(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to build container: %w", err)
	}

	return container, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func promptPassword() (string, error) {
	return utils.PromptPassword(os.Stderr)
}

func runUpload(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext()
	defer stop()

	container, err := buildContainer()
	if err != nil {
		return err
	}

	if err := container.EnsureSession(ctx, promptPassword); err != nil {
		return err
	}

	opts := container.UploadOptions()
	flagOpts := map[string]string{
		sendspace.OptionDescription:    uploadFlags.description,
		sendspace.OptionPassword:       uploadFlags.filePassword,
		sendspace.OptionFolderID:       uploadFlags.folderID,
		sendspace.OptionRecipientEmail: uploadFlags.recipientEmail,
		sendspace.OptionRedirectURL:    uploadFlags.redirectURL,
	}
	if uploadFlags.notify {
		flagOpts[sendspace.OptionNotifyUploader] = "1"
	}
	for key, value := range flagOpts {
		if value != "" {
			opts[key] = value
		}
	}

	container.Logger.Infof("Uploading %s", args[0])
	result, err := container.Client.UploadFile(ctx, sendspace.UploadRequest{
		Path:      args[0],
		Target:    uploadFlags.target,
		UserAgent: uploadFlags.userAgent,
		Options:   opts,
	})
	if err != nil {
		return err
	}

	fmt.Println(result.URL)
	return nil
}

func runLogin(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext()
	defer stop()

	// login always performs the handshake, a stored session is not reused
	sessionKey = ""
	container, err := buildContainer()
	if err != nil {
		return err
	}
	container.Config.SessionKey = ""

	if err := container.EnsureSession(ctx, promptPassword); err != nil {
		return err
	}

	fmt.Println(container.Client.SessionKey())
	return nil
}

func runCheckSession(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext()
	defer stop()

	container, err := buildContainer()
	if err != nil {
		return err
	}
	if container.Config.SessionKey == "" {
		return sendspace.ErrNotLoggedIn
	}

	if err := container.Client.SetSessionID(ctx, container.Config.SessionKey); err != nil {
		return err
	}

	fmt.Println("session is valid")
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext()
	defer stop()

	container, err := buildContainer()
	if err != nil {
		return err
	}
	if container.Config.SessionKey == "" {
		return sendspace.ErrNotLoggedIn
	}

	if err := container.Client.SetSessionID(ctx, container.Config.SessionKey); err != nil {
		return err
	}

	if err := container.Client.Logout(ctx); err != nil {
		if errors.Is(err, sendspace.ErrLogoutFailed) {
			container.Logger.Warn(err)
			return nil
		}
		return err
	}

	container.Logger.Info("Logged out")
	return nil
}
