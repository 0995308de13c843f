package banner

import (
	"fmt"

	"messagewall/pkg/config"
)

const banner = `
███╗   ███╗███████╗███████╗███████╗ █████╗  ██████╗ ███████╗██╗    ██╗ █████╗ ██╗     ██╗
████╗ ████║██╔════╝██╔════╝██╔════╝██╔══██╗██╔════╝ ██╔════╝██║    ██║██╔══██╗██║     ██║
██╔████╔██║█████╗  ███████╗███████╗███████║██║  ███╗█████╗  ██║ █╗ ██║███████║██║     ██║
██║╚██╔╝██║██╔══╝  ╚════██║╚════██║██╔══██║██║   ██║██╔══╝  ██║███╗██║██╔══██║██║     ██║
██║ ╚═╝ ██║███████╗███████║███████║██║  ██║╚██████╔╝███████╗╚███╔███╔╝██║  ██║███████╗███████╗
╚═╝     ╚═╝╚══════╝╚══════╝╚══════╝╚═╝  ╚═╝ ╚═════╝ ╚══════╝ ╚══╝╚══╝ ╚═╝  ╚═╝╚══════╝╚══════╝
`

// Print prints the startup banner with the effective runtime settings.
func Print(eff config.EffectiveConfigResult, version string) {
	fmt.Print(banner)
	fmt.Println("== Config =====================================================")
	fmt.Printf("Listen:      %s (%s)\n", eff.Addr, eff.Config.Server.Transport)
	fmt.Printf("DB Path:     %s\n", eff.DBPath)
	fmt.Printf("Publish Dir: %s\n", eff.Config.Publish.Dir)
	fmt.Printf("Notifier:    %s\n", eff.Config.Notify.Backend)
	if version != "" {
		fmt.Printf("Version:     %s\n", version)
	}
	if eff.Source != "" {
		fmt.Printf("Config from: %s\n", eff.Source)
	}
	fmt.Println("\n== Endpoints ==================================================")
	fmt.Println("POST /v1/messages  - Post a message (JSON: {\"text\": \"...\"})")
	fmt.Printf("GET  /%s    - Poll the published snapshot\n", eff.Config.Publish.StateKey)
	fmt.Println("GET  /metrics      - Prometheus metrics")
	fmt.Println("GET  /docs/        - API docs")
	fmt.Println("\n== Examples ===================================================")
	fmt.Printf("curl -X POST 'http://localhost%s/v1/messages' -d '{\"text\":\"hello wall\"}'\n", eff.Addr)
	fmt.Printf("curl 'http://localhost%s/%s'\n", eff.Addr, eff.Config.Publish.StateKey)
}
