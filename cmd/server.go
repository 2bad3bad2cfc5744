package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/csvstats/internal/api"
	"github.com/ziadkadry99/csvstats/internal/routes"
	"github.com/ziadkadry99/csvstats/internal/server"
	"github.com/ziadkadry99/csvstats/internal/spa"
	"github.com/ziadkadry99/csvstats/internal/state"
)

var (
	serverPort  int
	serverDist  string
	serverWatch bool
	serverOpen  bool
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Serve the frontend build and the state API",
	Long: `Starts the csvstats server. Files in the build directory are served
as-is, every other path gets index.html so the client router can handle
it, and /api plus /ws/state expose each browser session's state.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("port") {
			cfg.Port = serverPort
		}
		if cmd.Flags().Changed("dist") {
			cfg.DistDir = serverDist
		}
		if cmd.Flags().Changed("watch") {
			cfg.Watch = serverWatch
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		site, err := spa.New(spa.Options{
			Root:       cfg.DistDir,
			Index:      cfg.IndexFile,
			NoFallback: cfg.NoFallback,
			Immutable:  cfg.Immutable,
		})
		if err != nil {
			return fmt.Errorf("loading frontend build: %w", err)
		}

		// Graceful shutdown.
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		registry := state.NewRegistry(cfg.SessionTTL())
		registry.Verbose = verbose
		go registry.Run(ctx, min(time.Minute, cfg.SessionTTL()))

		if cfg.Watch {
			go func() {
				if err := site.Watch(ctx); err != nil {
					log.Printf("spa: watch: %v", err)
				}
			}()
		}

		srv := server.New(server.Config{
			Host:     cfg.Host,
			Port:     cfg.Port,
			AllowAll: cfg.AllowAllOrigins,
			Compress: cfg.Compress,
		})
		api.New(api.Options{
			Registry:       registry,
			Router:         routes.Default(),
			Parse:          parseOptions(cfg),
			MaxUploadBytes: cfg.MaxUploadBytes(),
		}).RegisterRoutes(srv.Router())
		srv.SetFallback(site)

		go func() {
			<-ctx.Done()
			fmt.Fprintln(os.Stderr, "\nShutting down server...")
			drain(srv, 10*time.Second)
		}()

		fmt.Fprintf(os.Stderr, "csvstats %s\n", Version)
		fmt.Fprintf(os.Stderr, "Server started in port: %d\n", cfg.Port)
		fmt.Fprintf(os.Stderr, "Local Server: http://localhost:%d\n", cfg.Port)
		fmt.Fprintf(os.Stderr, "  Build: %s\n", site.IndexPath())
		if cfg.Watch {
			fmt.Fprintln(os.Stderr, "  Watching the build for changes")
		}

		if serverOpen {
			go openBrowser(fmt.Sprintf("http://localhost:%d", cfg.Port))
		}

		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	},
}

func init() {
	serverCmd.Flags().IntVar(&serverPort, "port", 5000, "port to listen on (overrides config and PORT)")
	serverCmd.Flags().StringVar(&serverDist, "dist", "dist", "frontend build directory")
	serverCmd.Flags().BoolVar(&serverWatch, "watch", false, "reload index.html when the build changes")
	serverCmd.Flags().BoolVar(&serverOpen, "open", false, "open the app in the default browser")
	rootCmd.AddCommand(serverCmd)
}

type shutdowner interface {
	Shutdown(ctx context.Context) error
}

// drain stops srv, waiting up to timeout for open requests.
func drain(srv shutdowner, timeout time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("server: shutdown: %v", err)
	}
}

func openBrowser(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", url)
	case "darwin":
		cmd = exec.Command("open", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	_ = cmd.Start()
}
