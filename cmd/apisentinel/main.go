package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/blackcoderx/apisentinel/internal/authutil"
	"github.com/blackcoderx/apisentinel/internal/config"
	"github.com/blackcoderx/apisentinel/internal/model"
	"github.com/blackcoderx/apisentinel/internal/orchestrator"
	"github.com/blackcoderx/apisentinel/internal/plugins"
	"github.com/blackcoderx/apisentinel/internal/queue"
	"github.com/blackcoderx/apisentinel/internal/report"
	"github.com/blackcoderx/apisentinel/internal/worker"
)

// Version info (injected by GoReleaser).
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	cfgFile string

	serverURL     string
	specRef       string
	rate          float64
	requestBudget int
	dangerous     bool
	fuzzAuth      bool
	checkSchema   bool
	outputFormat  string
	theme         string

	rootCmd = &cobra.Command{
		Use:   "apisentinel",
		Short: "apisentinel - active API security scanner",
		Long: `apisentinel drives the OWASP API Security Top 10 probe suite against a
running API described by an OpenAPI or Postman collection, surfacing
findings as either a JSON report or a rendered Markdown summary.`,
	}

	scanCmd = &cobra.Command{
		Use:   "scan",
		Short: "Run a scan against a target API and its spec",
		RunE:  runScan,
	}

	authCmd = &cobra.Command{
		Use:   "auth",
		Short: "Inspect or mint credentials before a scan",
	}

	jwtCmd = &cobra.Command{
		Use:   "jwt <token>",
		Short: "Decode a JWT's header and claims (no signature verification)",
		Args:  cobra.ExactArgs(1),
		RunE:  runJWT,
	}

	basicCmd = &cobra.Command{
		Use:   "basic <header-value>",
		Short: "Decode a Basic Authorization header value",
		Args:  cobra.ExactArgs(1),
		RunE:  runBasic,
	}

	clientCredsCmd = &cobra.Command{
		Use:   "client-credentials",
		Short: "Mint a token via the OAuth2 client-credentials grant",
		RunE:  runClientCredentials,
	}

	passwordCmd = &cobra.Command{
		Use:   "password",
		Short: "Mint a token via the OAuth2 resource-owner password grant",
		RunE:  runPasswordGrant,
	}

	encodeCmd = &cobra.Command{
		Use:   "encode <username> <password>",
		Short: "Build a Basic Authorization header value from a username/password pair",
		Args:  cobra.ExactArgs(2),
		RunE:  runEncodeBasic,
	}

	tokenURL     string
	clientID     string
	clientSecret string
	scopes       []string
	username     string
	password     string
)

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file for viper (scan defaults are always read from .apisentinel/config.yaml under the working directory)")

	scanCmd.Flags().StringVar(&serverURL, "target", "", "base URL of the running API (required)")
	scanCmd.Flags().StringVar(&specRef, "spec", "", "path or URL to the OpenAPI/Postman spec (required)")
	scanCmd.Flags().Float64Var(&rate, "rate", 0, "requests per second (overrides config default)")
	scanCmd.Flags().IntVar(&requestBudget, "budget", 0, "max requests per job (overrides config default)")
	scanCmd.Flags().BoolVar(&dangerous, "dangerous", false, "enable state-mutating probes (mass assignment, injection writes)")
	scanCmd.Flags().BoolVar(&fuzzAuth, "fuzz-auth", false, "enable the auth-matrix probe's default-credential (Basic admin:admin) variant")
	scanCmd.Flags().BoolVar(&checkSchema, "check-schema", false, "run the optional post-sweep schema conformance pass")
	scanCmd.Flags().StringVar(&outputFormat, "output", "markdown", "report format: markdown or json")
	scanCmd.Flags().StringVar(&theme, "theme", "", "glamour theme for markdown output (overrides config default)")
	_ = scanCmd.MarkFlagRequired("target")
	_ = scanCmd.MarkFlagRequired("spec")

	clientCredsCmd.Flags().StringVar(&tokenURL, "token-url", "", "OAuth2 token endpoint (required)")
	clientCredsCmd.Flags().StringVar(&clientID, "client-id", "", "OAuth2 client ID (required)")
	clientCredsCmd.Flags().StringVar(&clientSecret, "client-secret", "", "OAuth2 client secret (required)")
	clientCredsCmd.Flags().StringSliceVar(&scopes, "scope", nil, "OAuth2 scopes to request")
	_ = clientCredsCmd.MarkFlagRequired("token-url")
	_ = clientCredsCmd.MarkFlagRequired("client-id")

	passwordCmd.Flags().StringVar(&tokenURL, "token-url", "", "OAuth2 token endpoint (required)")
	passwordCmd.Flags().StringVar(&clientID, "client-id", "", "OAuth2 client ID")
	passwordCmd.Flags().StringVar(&clientSecret, "client-secret", "", "OAuth2 client secret")
	passwordCmd.Flags().StringSliceVar(&scopes, "scope", nil, "OAuth2 scopes to request")
	passwordCmd.Flags().StringVar(&username, "username", "", "resource owner username (required)")
	passwordCmd.Flags().StringVar(&password, "password", "", "resource owner password (required)")
	_ = passwordCmd.MarkFlagRequired("token-url")
	_ = passwordCmd.MarkFlagRequired("username")
	_ = passwordCmd.MarkFlagRequired("password")

	authCmd.AddCommand(jwtCmd, basicCmd, clientCredsCmd, passwordCmd, encodeCmd)
	rootCmd.AddCommand(scanCmd, authCmd, versionCmd())
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("apisentinel %s\n", version)
			fmt.Printf("  commit: %s\n", commit)
			fmt.Printf("  built:  %s\n", date)
		},
	}
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(config.DirName)
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}
	viper.AutomaticEnv()
	_ = viper.ReadInConfig()
}

// runScan drives an in-process single-worker scan end to end: it starts
// the scan through the orchestrator, runs one worker against the
// in-memory queue until the scan reaches a terminal state, then renders
// the result. Exit codes follow §6: 0 for success or a budget-exhausted
// (still-completed) scan, 1 for a scan-level error, 2 for invalid input.
func runScan(cmd *cobra.Command, args []string) error {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Warning: failed to load .env file: %v\n", err)
	}

	cwd, err := os.Getwd()
	if err != nil {
		os.Exit(2)
	}
	cfg, err := config.Load(cwd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(2)
	}

	if rate == 0 {
		rate = cfg.Rate
	}
	if requestBudget == 0 {
		requestBudget = cfg.RequestBudget
	}
	if theme == "" {
		theme = cfg.ReportTheme
	}

	req := model.ScanRequest{
		ServerURL:              serverURL,
		SpecRef:                specRef,
		Rate:                   rate,
		RequestBudget:          requestBudget,
		Dangerous:              dangerous || cfg.Dangerous,
		FuzzAuth:               fuzzAuth || cfg.FuzzAuth,
		CheckSchemaConformance: checkSchema || cfg.CheckSchemaConformance,
	}

	q := queue.NewInMemory()
	orch := orchestrator.New(q)

	scanID, err := orch.StartScan(req)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid scan request: %v\n", err)
		os.Exit(2)
	}

	pluginReg := plugins.NewRegistry()
	pluginReg.Register(plugins.BannerGrab{})

	reg := worker.NewRegistry()
	w := worker.New("worker-1", q, reg)
	w.Plugins = pluginReg
	stop := make(chan struct{})
	go w.Run(stop)
	defer close(stop)

	record, err := orch.Wait(scanID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error waiting for scan: %v\n", err)
		os.Exit(1)
	}

	switch outputFormat {
	case "json":
		out, err := report.JSON(record)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error rendering report: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(string(out))
	default:
		fmt.Print(report.Render(record, theme))
	}

	if record.Status == model.ScanFailed {
		os.Exit(1)
	}
	return nil
}

func runJWT(cmd *cobra.Command, args []string) error {
	parts, err := authutil.ParseJWT(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}
	fmt.Println("Header:")
	fmt.Println(parts.Header)
	fmt.Println("\nClaims:")
	fmt.Println(parts.Claims)
	fmt.Println("\nSignature (unverified):", parts.Signature)
	return nil
}

func runBasic(cmd *cobra.Command, args []string) error {
	creds, err := authutil.DecodeBasic(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}
	fmt.Printf("Username: %s\nPassword: %s\n", creds.Username, creds.Password)
	return nil
}

func runClientCredentials(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	tok, err := authutil.ClientCredentialsGrant(ctx, tokenURL, clientID, clientSecret, scopes)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Authorization: %s\n", tok.AuthorizationHeader())
	if tok.RefreshToken != "" {
		fmt.Printf("Refresh token: %s\n", tok.RefreshToken)
	}
	if tok.ExpiresUnix != 0 {
		fmt.Printf("Expires: %s\n", time.Unix(tok.ExpiresUnix, 0).UTC())
	}
	return nil
}

func runPasswordGrant(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	tok, err := authutil.PasswordGrant(ctx, tokenURL, clientID, clientSecret, username, password, scopes)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Authorization: %s\n", tok.AuthorizationHeader())
	if tok.RefreshToken != "" {
		fmt.Printf("Refresh token: %s\n", tok.RefreshToken)
	}
	if tok.ExpiresUnix != 0 {
		fmt.Printf("Expires: %s\n", time.Unix(tok.ExpiresUnix, 0).UTC())
	}
	return nil
}

func runEncodeBasic(cmd *cobra.Command, args []string) error {
	fmt.Println(authutil.EncodeBasic(args[0], args[1]))
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
