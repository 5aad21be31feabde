package cloud

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/aws/smithy-go"
	"github.com/treykane/ec2-connect/internal/model"
	"github.com/treykane/ec2-connect/internal/security"
	"github.com/treykane/ec2-connect/internal/util"
)

// ErrNoRegion is returned when neither flags, config file nor the SDK default
// chain name a region.
var ErrNoRegion = errors.New("no AWS region configured; pass --region, set region in config.yaml or set AWS_REGION")

type ec2API interface {
	ec2.DescribeInstancesAPIClient
	StartInstances(ctx context.Context, params *ec2.StartInstancesInput, optFns ...func(*ec2.Options)) (*ec2.StartInstancesOutput, error)
}

type stsAPI interface {
	GetCallerIdentity(ctx context.Context, params *sts.GetCallerIdentityInput, optFns ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error)
}

// Options selects where the EC2 client points.
type Options struct {
	Region  string
	Profile string
}

// EC2 implements Cloud on top of the AWS SDK.
type EC2 struct {
	api     ec2API
	sts     stsAPI
	region  string
	maxWait time.Duration
	waitFns []func(*ec2.InstanceRunningWaiterOptions)
}

// NewEC2 loads the shared AWS configuration (environment, ~/.aws/config,
// ~/.aws/credentials, SSO, IMDS) and builds EC2 and STS clients from it.
func NewEC2(ctx context.Context, opts Options) (*EC2, error) {
	var loadOpts []func(*awsconfig.LoadOptions) error
	if opts.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(opts.Region))
	}
	if opts.Profile != "" {
		loadOpts = append(loadOpts, awsconfig.WithSharedConfigProfile(opts.Profile))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	if cfg.Region == "" {
		return nil, ErrNoRegion
	}
	slog.Debug("aws config loaded", "region", cfg.Region, "profile", opts.Profile)
	return &EC2{
		api:     ec2.NewFromConfig(cfg),
		sts:     sts.NewFromConfig(cfg),
		region:  cfg.Region,
		maxWait: util.InstanceRunningMaxWait,
	}, nil
}

// Region reports the region the clients were built for.
func (e *EC2) Region() string { return e.region }

// DescribeByName returns every reservation holding an instance whose Name tag
// equals name, in API order.
func (e *EC2) DescribeByName(ctx context.Context, name string) ([]model.Reservation, error) {
	input := &ec2.DescribeInstancesInput{
		Filters: []ec2types.Filter{{
			Name:   aws.String("tag:" + model.NameTag),
			Values: []string{name},
		}},
	}
	var out []model.Reservation
	p := ec2.NewDescribeInstancesPaginator(e.api, input)
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, classify("DescribeInstances", err)
		}
		out = append(out, toReservations(page.Reservations)...)
	}
	return out, nil
}

// StartAndWait starts the instance and blocks on the instance-running waiter.
func (e *EC2) StartAndWait(ctx context.Context, id string) error {
	if _, err := e.api.StartInstances(ctx, &ec2.StartInstancesInput{InstanceIds: []string{id}}); err != nil {
		return classify("StartInstances", err)
	}
	w := ec2.NewInstanceRunningWaiter(e.api, e.waitFns...)
	err := w.Wait(ctx, &ec2.DescribeInstancesInput{InstanceIds: []string{id}}, e.maxWait)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrNotRunning, err)
	}
	return nil
}

// CallerIdentity returns the account and ARN the loaded credentials belong to.
func (e *EC2) CallerIdentity(ctx context.Context) (account, arn string, err error) {
	out, err := e.sts.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return "", "", classify("GetCallerIdentity", err)
	}
	return aws.ToString(out.Account), aws.ToString(out.Arn), nil
}

func toReservations(in []ec2types.Reservation) []model.Reservation {
	out := make([]model.Reservation, 0, len(in))
	for _, r := range in {
		res := model.Reservation{ID: aws.ToString(r.ReservationId)}
		for _, inst := range r.Instances {
			res.Instances = append(res.Instances, toRecord(inst))
		}
		out = append(out, res)
	}
	return out
}

func toRecord(in ec2types.Instance) model.InstanceRecord {
	rec := model.InstanceRecord{
		ID:       aws.ToString(in.InstanceId),
		Tags:     make(map[string]string, len(in.Tags)),
		State:    model.StateUnknown,
		PublicIP: aws.ToString(in.PublicIpAddress),
	}
	for _, t := range in.Tags {
		rec.Tags[aws.ToString(t.Key)] = aws.ToString(t.Value)
	}
	if in.State != nil && in.State.Name != "" {
		rec.State = model.InstanceState(in.State.Name)
	}
	return rec
}

// classify turns SDK errors into a short operator message, keeping the full
// SDK text (request id, status code) for the debug log.
func classify(op string, err error) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		msg := fmt.Sprintf("%s: %s", op, apiErr.ErrorCode())
		if m := apiErr.ErrorMessage(); m != "" {
			msg += ": " + m
		}
		return security.Classify(msg, err)
	}
	return security.Classify(fmt.Sprintf("%s failed: %v", op, err), err)
}
