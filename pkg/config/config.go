/*
 * Copyright (C) 2026, Hewlett Packard Enterprise Development LP. All rights reserved.
 * See LICENSE for license information.
 */

package config

import (
	"strings"

	"github.com/spf13/viper"
)

const (
	defaultUrlExpirationSecond = 5 * 24 * 60 * 60
	defaultManifestSizeBytes   = 1024 * 1024
	defaultConnectTimeout      = 60
	defaultReadTimeout         = 60
	defaultImageSizeGiB        = 30
	defaultJobMemSizeGiB       = 8
)

// SetValue sets a configuration value for the specified key.
func SetValue(key string, value interface{}) {
	viper.Set(key, value)
}

// LoadConfig loads configuration from the optional config file and binds the
// recognized environment variables. An empty path skips the file and leaves
// the environment as the only source.
func LoadConfig(path string) error {
	for key, env := range envBindings {
		if err := viper.BindEnv(key, env); err != nil {
			return err
		}
	}
	if path == "" {
		return nil
	}
	viper.SetConfigFile(path)
	viper.SetConfigType("yaml")
	return viper.ReadInConfig()
}

func getString(key, defaultValue string) string {
	if !viper.IsSet(key) {
		return defaultValue
	}
	return viper.GetString(key)
}

func getBool(key string, defaultValue bool) bool {
	if !viper.IsSet(key) {
		return defaultValue
	}
	return viper.GetBool(key)
}

func getInt(key string, defaultValue int) int {
	if !viper.IsSet(key) {
		return defaultValue
	}
	return viper.GetInt(key)
}

func getStrings(key string, defaultValue []string) []string {
	if !viper.IsSet(key) {
		return defaultValue
	}
	val := viper.GetString(key)
	var result []string
	for _, item := range strings.Split(val, ",") {
		if trim := strings.TrimSpace(item); trim != "" {
			result = append(result, trim)
		}
	}
	return result
}

// GetServerPort returns the API server port.
func GetServerPort() int {
	return getInt(serverPort, 9100)
}

// GetDataStorePath returns the directory holding the per-kind record files.
func GetDataStorePath() string {
	return getString(dataStorePath, "/var/ims/data")
}

// GetLogLevel returns the klog verbosity level.
func GetLogLevel() string {
	return getString(logLevel, "0")
}

// GetS3Endpoint returns the object store endpoint for the ims principal.
func GetS3Endpoint() string {
	return getString(s3Endpoint, "")
}

// GetS3AccessKey returns the access key for the ims principal.
func GetS3AccessKey() string {
	return getString(s3AccessKey, "")
}

// GetS3SecretKey returns the secret key for the ims principal.
func GetS3SecretKey() string {
	return getString(s3SecretKey, "")
}

// IsS3SslValidate returns whether object store TLS certificates are verified.
func IsS3SslValidate() bool {
	return getBool(s3SslValidate, false)
}

// GetS3StsEndpoint returns the endpoint for the sts principal; falls back to
// the ims endpoint when not set.
func GetS3StsEndpoint() string {
	return getString(s3StsEndpoint, GetS3Endpoint())
}

// GetS3StsAccessKey returns the access key for the sts principal.
func GetS3StsAccessKey() string {
	return getString(s3StsAccessKey, "")
}

// GetS3StsSecretKey returns the secret key for the sts principal.
func GetS3StsSecretKey() string {
	return getString(s3StsSecretKey, "")
}

// GetS3ImsBucket returns the bucket holding recipe archives.
func GetS3ImsBucket() string {
	return getString(s3ImsBucket, "ims")
}

// GetS3BootImagesBucket returns the bucket holding image manifests.
func GetS3BootImagesBucket() string {
	return getString(s3BootImageBucket, "boot-images")
}

// GetS3UrlExpirationSecond returns the presigned URL lifetime in seconds.
func GetS3UrlExpirationSecond() int {
	return getInt(s3UrlExpiration, defaultUrlExpirationSecond)
}

// GetS3ConnectTimeoutSecond returns the object store connect timeout.
func GetS3ConnectTimeoutSecond() int {
	return getInt(s3ConnectTimeout, defaultConnectTimeout)
}

// GetS3ReadTimeoutSecond returns the object store read timeout.
func GetS3ReadTimeoutSecond() int {
	return getInt(s3ReadTimeout, defaultReadTimeout)
}

// GetMaxManifestSizeBytes returns the largest manifest the validator accepts.
func GetMaxManifestSizeBytes() int64 {
	return int64(getInt(maxManifestSize, defaultManifestSizeBytes))
}

// GetJobTemplatePath returns the root of the per-resource template files.
func GetJobTemplatePath() string {
	return getString(jobTemplatePath, "/mnt/ims/v2/job_templates")
}

// GetJobNamespace returns the namespace jobs are created in.
func GetJobNamespace() string {
	return getString(jobNamespace, "ims")
}

// GetDefaultImageSizeGiB returns the default build environment size.
func GetDefaultImageSizeGiB() int {
	return getInt(jobImageSize, defaultImageSizeGiB)
}

// GetDefaultJobMemSizeGiB returns the default job memory size.
func GetDefaultJobMemSizeGiB() int {
	return getInt(jobMemSize, defaultJobMemSizeGiB)
}

// IsJobDkmsEnabled returns whether DKMS jobs are admitted at all.
func IsJobDkmsEnabled() bool {
	return getBool(jobEnableDkms, true)
}

// GetKataRuntimeClass returns the sandbox runtime class for x86_64 DKMS jobs.
func GetKataRuntimeClass() string {
	return getString(jobKataRuntime, "kata-qemu")
}

// GetAarch64RuntimeClass returns the sandbox runtime class for aarch64 jobs.
func GetAarch64RuntimeClass() string {
	return getString(jobAarch64Runtime, "kata-qemu-aarch64")
}

// GetCustomerAccessPool returns the LoadBalancer address pool for job services.
func GetCustomerAccessPool() string {
	return getString(jobAccessPool, "customer-access")
}

// GetCustomerAccessSubnetName returns the subnet used in external hostnames.
func GetCustomerAccessSubnetName() string {
	return getString(jobAccessSubnetName, "cmn")
}

// GetCustomerAccessDomain returns the domain used in external hostnames.
func GetCustomerAccessDomain() string {
	return getString(jobAccessDomain, "shasta.local")
}

// GetSigningKeySecretName returns the secret copied into each job namespace.
func GetSigningKeySecretName() string {
	return getString(jobSigningKeySecret, "ims-remote-signing-keys")
}

// GetSystemNamespace returns the namespace the signing key secret lives in.
func GetSystemNamespace() string {
	return getString(jobSystemNamespace, "services")
}

// GetRemoteScratchPath returns the job working-directory prefix probed on
// remote build nodes.
func GetRemoteScratchPath() string {
	return getString(jobRemoteScratchPath, "/tmp/ims")
}

// GetVaultAddr returns the secret-manager address.
func GetVaultAddr() string {
	return getString(keysVaultAddr, "http://cray-vault.vault:8200")
}

// GetVaultRole returns the kubernetes-auth role used to log in.
func GetVaultRole() string {
	return getString(keysVaultRole, "ims-compute")
}

// GetTransitKeyName returns the transit engine key holding the SSH CA.
func GetTransitKeyName() string {
	return getString(keysTransitName, "ims-remote-build")
}

// GetPrivateKeyPath returns where the exported CA private key is written.
func GetPrivateKeyPath() string {
	return getString(keysPrivatePath, "/var/ims/keys/id_ecdsa_ca")
}

// GetKeysConfigMapName returns the name of the published key ConfigMap.
func GetKeysConfigMapName() string {
	return getString(keysConfigMapName, "cray-ims-remote-keys")
}

// GetKeysNamespaces returns the namespaces the key ConfigMap is published to.
func GetKeysNamespaces() []string {
	return getStrings(keysNamespaces, []string{"ims", "services"})
}
