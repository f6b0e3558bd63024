package db

import (
	"context"
	"fmt"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/rds/auth"
)

// AzurePostgreSQLScope is the token audience for Azure Database for PostgreSQL.
const AzurePostgreSQLScope = "https://ossrdbms-aad.database.windows.net/.default"

// rdsTokenLifetime is fixed by AWS.
const rdsTokenLifetime = 15 * time.Minute

// TokenProvider issues short-lived passwords for IAM database authentication.
type TokenProvider interface {
	GetToken(ctx context.Context) (token string, expiresOn time.Time, err error)
}

// AWSIAMTokenProvider signs RDS IAM auth tokens with the default AWS
// credential chain.
type AWSIAMTokenProvider struct {
	endpoint string // host:port
	region   string
	username string
}

func NewAWSIAMTokenProvider(endpoint, region, username string) (*AWSIAMTokenProvider, error) {
	if endpoint == "" {
		return nil, fmt.Errorf("AWS IAM auth requires endpoint (host:port)")
	}
	if region == "" {
		return nil, fmt.Errorf("AWS IAM auth requires region (use --aws-region or $AWS_REGION)")
	}
	if username == "" {
		return nil, fmt.Errorf("AWS IAM auth requires database username (--user)")
	}
	return &AWSIAMTokenProvider{endpoint: endpoint, region: region, username: username}, nil
}

func (p *AWSIAMTokenProvider) GetToken(ctx context.Context) (string, time.Time, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(p.region))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to load AWS config: %w", err)
	}

	token, err := auth.BuildAuthToken(ctx, p.endpoint, p.region, p.username, cfg.Credentials)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to build RDS auth token: %w", err)
	}
	return token, time.Now().Add(rdsTokenLifetime), nil
}

func (p *AWSIAMTokenProvider) String() string {
	return fmt.Sprintf("AWSIAMTokenProvider(endpoint=%s, region=%s, user=%s)", p.endpoint, p.region, p.username)
}

// AzureTokenProvider requests Entra ID tokens for Azure Database for PostgreSQL.
type AzureTokenProvider struct {
	credential azcore.TokenCredential
	name       string
}

// NewAzureTokenProvider uses a service principal when tenant, client and
// secret are all set, and the DefaultAzureCredential chain otherwise.
func NewAzureTokenProvider(tenantID, clientID, clientSecret string) (*AzureTokenProvider, error) {
	if tenantID != "" && clientID != "" && clientSecret != "" {
		cred, err := azidentity.NewClientSecretCredential(tenantID, clientID, clientSecret, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create Azure service principal credential: %w", err)
		}
		return &AzureTokenProvider{
			credential: cred,
			name:       fmt.Sprintf("AzureServicePrincipal(tenant=%s, client=%s)", tenantID, clientID),
		}, nil
	}

	cred, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create Azure default credential: %w", err)
	}
	return &AzureTokenProvider{credential: cred, name: "AzureDefaultCredential"}, nil
}

func (p *AzureTokenProvider) GetToken(ctx context.Context) (string, time.Time, error) {
	token, err := p.credential.GetToken(ctx, policy.TokenRequestOptions{
		Scopes: []string{AzurePostgreSQLScope},
	})
	if err != nil {
		return "", time.Time{}, fmt.Errorf("azure token acquisition failed: %w", err)
	}
	return token.Token, token.ExpiresOn, nil
}

func (p *AzureTokenProvider) String() string {
	return p.name
}

var (
	_ TokenProvider = (*AWSIAMTokenProvider)(nil)
	_ TokenProvider = (*AzureTokenProvider)(nil)
)
