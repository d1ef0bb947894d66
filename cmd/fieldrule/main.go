// Command fieldrule wires the Source Registry, Message Bus, one or more
// Controllers, and the Rule Engine into a running process (SPEC_FULL §3.3):
// the supplemented entry point spec.md itself treats configuration loading
// and process wiring as out of scope.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/bittoy/fieldrule/bus"
	"github.com/bittoy/fieldrule/controller"
	"github.com/bittoy/fieldrule/engine"
	"github.com/bittoy/fieldrule/evalexpr"
	"github.com/bittoy/fieldrule/registry"
	"github.com/bittoy/fieldrule/sourceclass"
	"github.com/bittoy/fieldrule/stats"
	"github.com/bittoy/fieldrule/types"
)

func main() {
	logger := types.DefaultLogger()

	classes := registry.NewClassRegistry()
	if err := sourceclass.RegisterAll(classes); err != nil {
		log.Fatalf("fieldrule: registering source classes: %v", err)
	}
	sourceRegistry := registry.NewSourceRegistry(classes)

	b := bus.NewMemoryBus()
	for _, queue := range []string{"internal", "internal-mirror", "rule1"} {
		if err := b.NewQueue(queue, 256); err != nil {
			log.Fatalf("fieldrule: %v", err)
		}
	}

	sink := stats.New()
	cfg := types.NewConfig(
		types.WithSourceRegistry(sourceRegistry),
		types.WithClassRegistry(classes),
		types.WithBus(b),
		types.WithLogger(logger),
		types.WithStats(sink),
	)

	copts := controller.Options{
		RuleQueue:            "rule1",
		SendEventsOnExternal: true,
		SendEventsOnInternal: true,
		OldNewComparison:     true,
		SendInitEvent:        true,
	}

	// Controller class registration + the two top-level "controllers"/
	// "controller_aliases" dictionaries spec §6 requires: "internal" is the
	// only enabled class here, and "internal-mirror" is an alias that runs a
	// second instance of the same class under its own name and bus queue
	// (mirroring Controllers.py's load()/init()).
	controllerClasses := registry.NewControllerRegistry()
	if err := controllerClasses.RegisterController("internal", func(name string, cfg types.Config) (types.Controller, error) {
		return controller.NewInternalController(name, cfg, copts), nil
	}); err != nil {
		log.Fatalf("fieldrule: registering controller class: %v", err)
	}

	enabledControllers := map[string]bool{"internal": true}
	controllerAliases := map[string]string{"internal-mirror": "internal"}

	bootstrap := registry.NewBootstrap(controllerClasses, cfg)
	controllers, err := bootstrap.Build(enabledControllers, controllerAliases)
	if err != nil {
		log.Fatalf("fieldrule: building controllers: %v", err)
	}

	evaluators := map[string]types.Evaluator{
		"expr": evalexpr.NewExprEvaluator(),
		"js":   evalexpr.NewJSEvaluator(logger),
	}
	rule := engine.New("rule1", cfg, evaluators, time.Second)

	// A minimal demonstration rule: one expression that mirrors writes to
	// echoIn onto echoOut. Real deployments load ExpressionDecls from
	// configuration rather than hardcoding them (spec §6).
	decls := []engine.ExpressionDecl{
		{
			ID:        "echo",
			Evaluator: "expr",
			Source:    `write("echoOut", echoIn)`,
			Args: []engine.SourceArgDecl{
				{Key: "echoIn", Controller: "internal", Rule: "rule1", Type: sourceclass.VariantTypeName},
				{Key: "echoOut", Controller: "internal", Rule: "rule1", Type: sourceclass.VariantTypeName},
			},
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rule.Setup(ctx, decls); err != nil {
		log.Fatalf("fieldrule: rule setup: %v", err)
	}

	var wg sync.WaitGroup
	run := func(name string, fn func(context.Context) error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(ctx); err != nil {
				logger.Printf("fieldrule: %s exited: %v", name, err)
			}
		}()
	}

	for _, c := range controllers {
		run("controller:"+c.Name(), c.Run)
	}
	run("rule:rule1", rule.Run)
	run("tick", rule.StartTicking)

	<-ctx.Done()
	logger.Printf("fieldrule: shutting down")
	wg.Wait()
}
