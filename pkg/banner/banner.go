package banner

import (
	"fmt"

	"vizzydb/pkg/config"
)

const banner = `
██╗   ██╗██╗███████╗███████╗██╗   ██╗    ██████╗ ██████╗
██║   ██║██║╚══███╔╝╚══███╔╝╚██╗ ██╔╝    ██╔══██╗██╔══██╗
██║   ██║██║  ███╔╝   ███╔╝   ╚████╔╝    ██║  ██║██████╔╝
╚██╗ ██╔╝██║ ███╔╝   ███╔╝     ╚██╔╝     ██║  ██║██╔══██╗
 ╚████╔╝ ██║███████╗███████╗    ██║      ██████╔╝██████╔╝
  ╚═══╝  ╚═╝╚══════╝╚══════╝    ╚═╝      ╚═════╝ ╚═════╝
`

// Print prints the startup banner with the effective listen address, db
// path, config source and a short production checklist.
func Print(cfg *config.Config, addr, dbPath, source, version string) {
	fmt.Print(banner)
	fmt.Println("== Config =====================================================")
	fmt.Printf("Listen:   %s\n", addr)
	fmt.Printf("DB Path:  %s\n", dbPath)
	if version != "" {
		fmt.Printf("Version:  %s\n", version)
	}
	if source != "" {
		fmt.Printf("Config:   %s\n", source)
	}

	fmt.Println("\n== Endpoints ==================================================")
	fmt.Println("POST /v1/exports - Export a campaign (idempotent per snapshot)")
	fmt.Println("GET  /v1/exports?campaign=<id> - List export records for a campaign")
	fmt.Println("POST /v1/threads/{id}/messages - Append a chat message")
	fmt.Println("GET  /v1/threads/{id}/messages?since=<ts>&limit=<n> - List messages")

	fmt.Println("\n== Examples ===================================================")
	fmt.Printf("curl -X POST 'http://localhost%s/v1/exports' -d '{\"id\": \"c1\", \"name\": \"Fall Launch\"}'\n", addr)
	fmt.Printf("curl 'http://localhost%s/v1/threads/t1/messages?limit=10'\n", addr)

	fmt.Println("\n== Production? ================================================")
	if cfg != nil && len(cfg.Security.APIKeys) > 0 {
		fmt.Printf("- API keys: OK (%d)\n", len(cfg.Security.APIKeys))
	} else {
		fmt.Println("- API keys: MISSING (all requests unauthenticated)")
	}
	if cfg != nil && cfg.Server.TLS.CertFile != "" && cfg.Server.TLS.KeyFile != "" {
		fmt.Println("- TLS: configured")
	} else {
		fmt.Println("- TLS: unconfigured")
	}
	if cfg != nil && cfg.Export.Wrike.Endpoint != "" {
		fmt.Println("- Wrike: external endpoint configured")
	} else {
		fmt.Println("- Wrike: stub (exports create local records only)")
	}
	if cfg != nil && cfg.Retention.Enabled {
		cron := cfg.Retention.Cron
		if cron == "" {
			cron = "0 2 * * *"
		}
		fmt.Printf("- Retention: enabled (cron=%s)\n", cron)
	} else {
		fmt.Println("- Retention: disabled")
	}

	fmt.Println("\n== Logs: ======================================================")
}
