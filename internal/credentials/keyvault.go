package credentials

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/security/keyvault/azsecrets"
)

type secretClient interface {
	GetSecret(ctx context.Context, name string, version string, options *azsecrets.GetSecretOptions) (azsecrets.GetSecretResponse, error)
}

// KeyVaultProvider reads secrets from Azure Key Vault using the default
// Azure credential chain.
type KeyVaultProvider struct {
	newClient func(vaultURL string) (secretClient, error)
}

// NewKeyVaultProvider builds a provider with the default Azure credential.
func NewKeyVaultProvider() (*KeyVaultProvider, error) {
	cred, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create azure credential: %v", ErrCredential, err)
	}
	return &KeyVaultProvider{
		newClient: func(vaultURL string) (secretClient, error) {
			return azsecrets.NewClient(vaultURL, cred, nil)
		},
	}, nil
}

// VaultURL returns the Key Vault URL of a vault name.
func VaultURL(vaultID string) string {
	return fmt.Sprintf("https://%s.vault.azure.net/", vaultID)
}

func (k *KeyVaultProvider) GetSecret(ctx context.Context, vaultID, secretID string) (string, error) {
	client, err := k.newClient(VaultURL(vaultID))
	if err != nil {
		return "", fmt.Errorf("%w: failed to create key vault client: %v", ErrCredential, err)
	}

	// An empty version selects the latest
	resp, err := client.GetSecret(ctx, secretID, "", nil)
	if err != nil {
		var respErr *azcore.ResponseError
		if errors.As(err, &respErr) {
			if respErr.StatusCode == http.StatusNotFound {
				return "", fmt.Errorf("%w: %s", ErrSecretNotFound, secretID)
			}
			return "", fmt.Errorf("%w: key vault returned status %d %s", ErrCredential, respErr.StatusCode, respErr.ErrorCode)
		}
		return "", fmt.Errorf("%w: %v", ErrCredential, err)
	}
	if resp.Value == nil {
		return "", fmt.Errorf("%w: %s has no value", ErrSecretNotFound, secretID)
	}
	return *resp.Value, nil
}
