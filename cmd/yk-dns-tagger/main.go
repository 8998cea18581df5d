package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	elbv2 "github.com/aws/aws-sdk-go-v2/service/elasticloadbalancingv2"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/log/zap"

	"github.com/yuriy-kovalchuk/yk-dns-tagger/internal/config"
	"github.com/yuriy-kovalchuk/yk-dns-tagger/internal/dns"
	_ "github.com/yuriy-kovalchuk/yk-dns-tagger/internal/dns/providers"
	"github.com/yuriy-kovalchuk/yk-dns-tagger/internal/inventory"
	"github.com/yuriy-kovalchuk/yk-dns-tagger/internal/reconciler"
	"github.com/yuriy-kovalchuk/yk-dns-tagger/internal/store"
)

var Version = "dev"

func main() {
	opts := zap.Options{
		Development: true,
	}
	opts.BindFlags(flag.CommandLine)
	eventPath := flag.String("event", "", "process the EventBridge event in this JSON file and exit instead of serving Lambda invocations")
	flag.Parse()

	ctrl.SetLogger(zap.New(zap.UseFlagOptions(&opts)))

	if err := run(*eventPath); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(eventPath string) error {
	log := ctrl.Log.WithName("setup")

	log.Info("starting yk-dns-tagger", "version", Version)

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("unable to load config: %w", err)
	}
	log.Info("loaded config", "provider", cfg.Provider, "tagKey", cfg.TagKey, "table", cfg.TableName)

	var loadOpts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(cfg.Region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), loadOpts...)
	if err != nil {
		return fmt.Errorf("unable to load AWS config: %w", err)
	}

	dnsProvider, err := dns.NewProvider(cfg.Provider, ctrl.Log.WithName("dns-"+cfg.Provider), awsCfg, cfg.Settings)
	if err != nil {
		return fmt.Errorf("unable to create DNS provider: %w", err)
	}

	associations := store.NewDynamoDB(ctrl.Log.WithName("store"), dynamodb.NewFromConfig(awsCfg), cfg.TableName)
	dispatcher := &reconciler.Dispatcher{
		Log:       ctrl.Log.WithName("dispatcher"),
		TagKey:    cfg.TagKey,
		DNS:       dnsProvider,
		Store:     associations,
		Instances: inventory.NewInstanceLoader(ec2.NewFromConfig(awsCfg)),
		Balancers: inventory.NewBalancerLoader(elbv2.NewFromConfig(awsCfg)),
		Mutator: &reconciler.Mutator{
			DNS:   dnsProvider,
			Store: associations,
			Log:   ctrl.Log.WithName("mutator"),
			TTL:   cfg.RecordTTL,
		},
	}

	if eventPath != "" {
		log.Info("replaying event", "path", eventPath)
		return replay(ctrl.SetupSignalHandler(), dispatcher.Handle, eventPath)
	}

	log.Info("serving Lambda invocations")
	lambda.Start(dispatcher.Handle)
	return nil
}

// replay feeds the event stored at path to handle once.
func replay(ctx context.Context, handle func(context.Context, events.CloudWatchEvent) error, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading event file: %w", err)
	}
	var ev events.CloudWatchEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return fmt.Errorf("parsing event file: %w", err)
	}
	return handle(ctx, ev)
}
