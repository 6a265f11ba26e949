package main

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/fpang/sight-assist/internal/assist"
	"github.com/fpang/sight-assist/internal/cli"
	"github.com/fpang/sight-assist/internal/config"
	"github.com/fpang/sight-assist/internal/logging"
	"github.com/fpang/sight-assist/internal/metrics"
	"github.com/fpang/sight-assist/internal/session"
	"github.com/klauspost/compress/gzhttp"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

//go:embed all:frontend_dist
var frontendFS embed.FS

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

// CLI flags
var (
	portFlag       int
	modelFlag      string
	configFlag     string
	noValidateFlag bool
)

var rootCmd = &cobra.Command{
	Use:   "sight-web",
	Short: "Web UI that describes, reads, and speaks uploaded images",
	Long: `Sight Web starts a local web server for visually impaired users.
Upload a JPG or PNG, then describe the scene with Gemini, extract the
visible text with Tesseract, or have that text read aloud.

Examples:
  sight-web
  sight-web --port 9090
  sight-web --model gemini-2.5-pro --config ~/sight-assist.yaml`,
	Run: runMain,
}

func init() {
	rootCmd.Flags().IntVar(&portFlag, "port", config.DefaultPort, "Port to listen on")
	rootCmd.Flags().StringVarP(&modelFlag, "model", "m", config.DefaultModel, "Gemini model to use")
	rootCmd.Flags().StringVarP(&configFlag, "config", "c", "", "Path to config file (default ./"+config.DefaultPath+")")
	rootCmd.Flags().BoolVar(&noValidateFlag, "no-validate", false, "Skip the API key check at startup")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runMain(cmd *cobra.Command, args []string) {
	start := time.Now()
	logging.Init()

	cfg, err := config.Load(configFlag)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	if cmd.Flags().Changed("port") {
		cfg.Web.Port = portFlag
	}
	if cmd.Flags().Changed("model") {
		cfg.Model = modelFlag
	}
	if cfg.Metrics {
		metrics.Enable(os.Stderr, "sight-web")
	}

	ctx := context.Background()
	engines := cli.InitEngines(ctx, cfg)
	if engines.Models != nil && !noValidateFlag {
		engines.Validate(ctx)
	}

	store := session.NewStore(func(id string) *assist.Assistant {
		return engines.NewAssistant(assist.WithSessionID(id))
	}, cfg.Web.SessionTTL)
	stopSweeper := make(chan struct{})
	go store.RunSweeper(time.Minute, stopSweeper)

	a := &app{
		store:   store,
		engines: engines,
		pick:    cli.PickImage,
	}

	mux := http.NewServeMux()
	a.routes(mux)

	// Frontend static files (SPA fallback)
	frontendSub, err := fs.Sub(frontendFS, "frontend_dist")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to access embedded frontend")
	}
	mux.Handle("/", spaHandler(frontendSub))

	handler := gzhttp.GzipHandler(withLogging(withCORS(mux)))

	addr := fmt.Sprintf(":%d", cfg.Web.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info().Msg("Shutting down...")
		close(stopSweeper)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		srv.Shutdown(ctx)
	}()

	logging.NewStartupLogger("sight-web").
		Version(version).
		Engine("scene", engines.Model).
		Engine("ocr", engines.OCR.Name()).
		Engine("speech", engines.SpeechName).
		Feature("describe", engines.Models != nil).
		Feature("metrics", cfg.Metrics).
		Config("port", strconv.Itoa(cfg.Web.Port)).
		Config("sessionTTL", cfg.Web.SessionTTL.String()).
		InitDuration(time.Since(start)).
		Log()

	fmt.Printf("\n  Sight Assist: http://localhost:%d\n\n", cfg.Web.Port)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("Server failed")
	}
}

// spaHandler serves the embedded frontend, falling back to index.html for
// unknown paths.
func spaHandler(frontend fs.FS) http.Handler {
	fileServer := http.FileServer(http.FS(frontend))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Security headers
		w.Header().Set("Content-Security-Policy", "default-src 'self'; img-src 'self' blob: data:; style-src 'self' 'unsafe-inline'; connect-src 'self'")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		path := r.URL.Path
		if path != "/" {
			f, err := frontend.Open(strings.TrimPrefix(path, "/"))
			if err != nil {
				r.URL.Path = "/"
			} else {
				f.Close()
			}
		}
		fileServer.ServeHTTP(w, r)
	})
}

// --- Middleware ---

func withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		if strings.HasPrefix(r.URL.Path, "/api/") {
			log.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Dur("duration", time.Since(start)).
				Msg("API request")
		}
	})
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Only allow localhost origins
		origin := r.Header.Get("Origin")
		if origin != "" && (strings.HasPrefix(origin, "http://localhost:") || strings.HasPrefix(origin, "http://127.0.0.1:")) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			w.Header().Set("Access-Control-Allow-Credentials", "true")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
