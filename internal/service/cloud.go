package service

import (
	"context"
	"fmt"
	"time"

	"github.com/ANIKETSHETTY47/water-transfer-dashboard/internal/cloud"
	"github.com/ANIKETSHETTY47/water-transfer-dashboard/internal/config"
	"github.com/ANIKETSHETTY47/water-transfer-dashboard/internal/domain"
	"github.com/ANIKETSHETTY47/water-transfer-dashboard/internal/engine"
	"github.com/ANIKETSHETTY47/water-transfer-dashboard/internal/store"
	"github.com/rs/zerolog"
)

// Cloud holds the AWS clients. It is nil when USE_CLOUD_SERVICES is off.
type Cloud struct {
	SNS    *cloud.SNSClient
	S3     *cloud.S3Client
	Dynamo *cloud.DynamoDBClient
}

func ConnectCloud(ctx context.Context) (*Cloud, error) {
	if !config.UseCloudServices() {
		return nil, nil
	}
	region := config.AWSRegion()

	c := &Cloud{}
	var err error
	if arn := config.SNSTopicArn(); arn != "" {
		if c.SNS, err = cloud.NewSNSClient(ctx, region, arn); err != nil {
			return nil, fmt.Errorf("sns: %w", err)
		}
	}
	if c.S3, err = cloud.NewS3Client(ctx, region, config.S3Bucket()); err != nil {
		return nil, fmt.Errorf("s3: %w", err)
	}
	if c.Dynamo, err = cloud.NewDynamoDBClient(ctx, region, config.DynamoDBTable()); err != nil {
		return nil, fmt.Errorf("dynamodb: %w", err)
	}
	return c, nil
}

func (c *Cloud) Notifier(logger zerolog.Logger) *Notifier {
	var (
		sender AlertSender
		log    EventLog
	)
	if c.SNS != nil {
		sender = c.SNS
	}
	if c.Dynamo != nil {
		log = c.Dynamo
	}
	return NewNotifier(sender, log, config.NotifyRatePerMinute(), logger)
}

func (c *Cloud) Reports() *ReportService {
	if c == nil || c.S3 == nil {
		return nil
	}
	return &ReportService{Reports: c.S3}
}

// NewDashboard builds the store and driver from configuration. The
// initial scenario is applied before the driver starts.
func NewDashboard(cfg engine.Config, speed float64, scenario domain.Scenario) (*Dashboard, error) {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	initial := domain.Default(cfg.Now())
	if speed > 0 {
		initial.SimulationSpeed = speed
	}
	st := store.New(initial, cfg.Logger)
	d := &Dashboard{Store: st, Driver: engine.New(st, cfg)}

	if err := d.Driver.Seed(); err != nil {
		return nil, fmt.Errorf("seed history: %w", err)
	}
	if scenario != "" && scenario != domain.ScenarioNormal {
		if err := d.Driver.ApplyScenario(scenario); err != nil {
			return nil, fmt.Errorf("apply scenario: %w", err)
		}
	}
	return d, nil
}
