package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/marquev/warranty-agent/agent/assistant"
	"github.com/marquev/warranty-agent/agent/casefile"
	"github.com/marquev/warranty-agent/agent/contract"
	"github.com/marquev/warranty-agent/agent/orchestrator"
	toolx "github.com/marquev/warranty-agent/agent/tool"
	actionsx "github.com/marquev/warranty-agent/pkg/actions"
	configx "github.com/marquev/warranty-agent/pkg/config"
	_ "github.com/marquev/warranty-agent/pkg/logger/autoload"
	openrouterx "github.com/marquev/warranty-agent/pkg/openrouter"
	warrantyx "github.com/marquev/warranty-agent/pkg/warranty"
)

type AppConfig struct {
	WarrantyDB         string        `envconfig:"WARRANTY_DB" split_words:"true" default:":memory:"`
	ToolTimeout        time.Duration `envconfig:"TOOL_TIMEOUT" split_words:"true" default:"10s"`
	AssistantEnabled   bool          `envconfig:"ASSISTANT_ENABLED" split_words:"true" default:"false"`
	ActionsPostgresDSN string        `envconfig:"ACTIONS_POSTGRES_DSN" split_words:"true"`
}

func main() {
	scenarios := flag.Bool("scenarios", false, "run the scripted demo scenarios and exit")
	productID := flag.String("product", "", "product id for the interactive session")
	zip := flag.String("zip", "", "zip code for the interactive session")

	appCfg := configx.MustNew[AppConfig]("")
	storeCfg := configx.MustNew[casefile.StoreConfig]("CASE")

	ctx := context.Background()

	db, err := warrantyx.Open(appCfg.WarrantyDB)
	if err != nil {
		log.Fatal().Err(err).Msg("open warranty database")
	}
	defer db.Close()

	warrantySvc := warrantyx.NewService(warrantyx.NewSQLiteProductRepo(db))

	actionSvc := actionsx.NewService()
	if appCfg.ActionsPostgresDSN != "" {
		store, err := actionsx.NewBunDeclineStore(ctx, appCfg.ActionsPostgresDSN)
		if err != nil {
			log.Fatal().Err(err).Msg("connect decline store")
		}
		defer store.Close()
		actionSvc = actionSvc.WithDeclineStore(store)
	}

	gateway := toolx.NewGateway(warrantySvc, actionSvc).WithTimeout(appCfg.ToolTimeout)

	cases, err := casefile.NewStore(*storeCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("create case store")
	}

	orch, err := orchestrator.New(cases, gateway)
	if err != nil {
		log.Fatal().Err(err).Msg("create orchestrator")
	}

	if appCfg.AssistantEnabled {
		openRouterCfg := configx.MustNew[openrouterx.Config]("OPENROUTER")
		if openrouterx.NewClient(*openRouterCfg) == nil {
			log.Fatal().Msg("assistant enabled but no OpenRouter API key configured")
		}
		llm, err := assistant.New(ctx, openRouterCfg, gateway)
		if err != nil {
			log.Fatal().Err(err).Msg("create assistant")
		}
		orch = orch.WithAssistant(llm)
		log.Info().Msg("assistant front-end enabled")
	}

	if *scenarios {
		runScenarios(ctx, orch)
		return
	}

	runInteractive(ctx, orch, *productID, *zip)
}

func runInteractive(ctx context.Context, orch *orchestrator.Orchestrator, productID, zip string) {
	fmt.Println("Warranty service assistant. Type a message, or 'quit' to exit.")

	scanner := bufio.NewScanner(os.Stdin)
	var caseID string

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		text := scanner.Text()
		if text == "quit" || text == "exit" {
			break
		}

		resp := orch.ProcessRequest(ctx, contract.Request{
			CaseID:                caseID,
			UserMessage:           text,
			LoggedIn:              true,
			HasRegisteredProducts: true,
			ProductID:             productID,
			Location:              casefile.Location{Zip: zip, State: "TX"},
		})
		caseID = resp.CaseID

		fmt.Printf("\n%s\n", resp.Response)
		if resp.Action != "" {
			fmt.Printf("[action: %s]\n", resp.Action)
		}
		fmt.Println()
	}
}

type scenarioTurn struct {
	message string
	request func(caseID string) contract.Request
}

func runScenarios(ctx context.Context, orch *orchestrator.Orchestrator) {
	scripted := func(productID string, loc casefile.Location) func(string) func(string) contract.Request {
		return func(message string) func(string) contract.Request {
			return func(caseID string) contract.Request {
				return contract.Request{
					CaseID:                caseID,
					UserMessage:           message,
					LoggedIn:              true,
					HasRegisteredProducts: true,
					ProductID:             productID,
					Location:              loc,
				}
			}
		}
	}
	heatRequest := scripted("HEAT-001", casefile.Location{Zip: "77001", State: "TX"})
	remoteHeatRequest := scripted("HEAT-003", casefile.Location{Zip: "90210", State: "CA"})
	saltRequest := scripted("SALT-001", casefile.Location{Zip: "77002", State: "TX"})

	scenarios := []struct {
		name  string
		turns []scenarioTurn
	}{
		{
			name: "HEAT warranty, customer proceeds, serviceable -> payment link",
			turns: []scenarioTurn{
				{message: "My heat pump water heater isn't working properly", request: heatRequest("My heat pump water heater isn't working properly")},
				{message: "continue", request: heatRequest("continue")},
				{message: "Yes, I want to proceed with the service", request: heatRequest("Yes, I want to proceed with the service")},
				{message: "go ahead", request: heatRequest("go ahead")},
			},
		},
		{
			name: "HEAT warranty, customer declines -> reason logged",
			turns: []scenarioTurn{
				{message: "My heat pump is making a loud noise", request: heatRequest("My heat pump is making a loud noise")},
				{message: "continue", request: heatRequest("continue")},
				{message: "No, that's too expensive. I'll wait until next month.", request: heatRequest("No, that's too expensive. I'll wait until next month.")},
			},
		},
		{
			name: "SALT warranty -> queued",
			turns: []scenarioTurn{
				{message: "My water softener stopped regenerating", request: saltRequest("My water softener stopped regenerating")},
				{message: "please send someone out", request: saltRequest("please send someone out")},
			},
		},
		{
			name: "HEAT warranty, proceeds, outside territory -> provider directory",
			turns: []scenarioTurn{
				{message: "My heater is leaking", request: remoteHeatRequest("My heater is leaking")},
				{message: "continue", request: remoteHeatRequest("continue")},
				{message: "Yes, please proceed", request: remoteHeatRequest("Yes, please proceed")},
				{message: "go ahead", request: remoteHeatRequest("go ahead")},
			},
		},
		{
			name: "Not logged in -> login prompt",
			turns: []scenarioTurn{
				{message: "I need warranty service", request: func(caseID string) contract.Request {
					return contract.Request{CaseID: caseID, UserMessage: "I need warranty service"}
				}},
			},
		},
	}

	for _, sc := range scenarios {
		fmt.Printf("=== %s ===\n", sc.name)
		var caseID string
		for _, turn := range sc.turns {
			resp := orch.ProcessRequest(ctx, turn.request(caseID))
			caseID = resp.CaseID
			fmt.Printf("user: %s\n", turn.message)
			fmt.Printf("bot:  %s\n", resp.Response)
			if resp.Action != "" {
				fmt.Printf("      [action: %s]\n", resp.Action)
			}
		}
		fmt.Println()
	}
}
