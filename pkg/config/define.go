/*
 * Copyright (C) 2026, Hewlett Packard Enterprise Development LP. All rights reserved.
 * See LICENSE for license information.
 */

package config

const (
	// service
	servicePrefix = "service."
	serverPort    = servicePrefix + "port"
	dataStorePath = servicePrefix + "data_store"
	logLevel      = servicePrefix + "log_level"

	// s3
	s3Prefix          = "s3."
	s3Endpoint        = s3Prefix + "endpoint"
	s3AccessKey       = s3Prefix + "access_key"
	s3SecretKey       = s3Prefix + "secret_key"
	s3SslValidate     = s3Prefix + "ssl_validate"
	s3StsEndpoint     = s3Prefix + "sts_endpoint"
	s3StsAccessKey    = s3Prefix + "sts_access_key"
	s3StsSecretKey    = s3Prefix + "sts_secret_key"
	s3ImsBucket       = s3Prefix + "ims_bucket"
	s3BootImageBucket = s3Prefix + "boot_images_bucket"
	s3UrlExpiration   = s3Prefix + "url_expiration"
	s3ConnectTimeout  = s3Prefix + "connect_timeout"
	s3ReadTimeout     = s3Prefix + "read_timeout"
	maxManifestSize   = s3Prefix + "max_image_manifest_size_bytes"

	// job
	jobPrefix            = "job."
	jobTemplatePath      = jobPrefix + "template_path"
	jobNamespace         = jobPrefix + "namespace"
	jobImageSize         = jobPrefix + "image_size"
	jobMemSize           = jobPrefix + "mem_size"
	jobEnableDkms        = jobPrefix + "enable_dkms"
	jobKataRuntime       = jobPrefix + "kata_runtime"
	jobAarch64Runtime    = jobPrefix + "aarch64_runtime"
	jobAccessPool        = jobPrefix + "customer_access_pool"
	jobAccessSubnetName  = jobPrefix + "customer_access_subnet_name"
	jobAccessDomain      = jobPrefix + "customer_access_domain"
	jobSigningKeySecret  = jobPrefix + "signing_key_secret"
	jobSystemNamespace   = jobPrefix + "system_namespace"
	jobRemoteScratchPath = jobPrefix + "remote_scratch_path"

	// signing keys
	keysPrefix        = "keys."
	keysVaultAddr     = keysPrefix + "vault_addr"
	keysVaultRole     = keysPrefix + "vault_role"
	keysTransitName   = keysPrefix + "transit_name"
	keysPrivatePath   = keysPrefix + "private_key_path"
	keysConfigMapName = keysPrefix + "configmap_name"
	keysNamespaces    = keysPrefix + "namespaces"
)

// envBindings maps viper keys to the environment variables recognized by the
// service. The environment always wins over the config file.
var envBindings = map[string]string{
	dataStorePath: "HACK_DATA_STORE",
	logLevel:      "LOG_LEVEL",

	s3Endpoint:        "S3_ENDPOINT",
	s3AccessKey:       "S3_ACCESS_KEY",
	s3SecretKey:       "S3_SECRET_KEY",
	s3SslValidate:     "S3_SSL_VALIDATE",
	s3StsEndpoint:     "S3_STS_ENDPOINT",
	s3StsAccessKey:    "S3_STS_ACCESS_KEY",
	s3StsSecretKey:    "S3_STS_SECRET_KEY",
	s3ImsBucket:       "S3_IMS_BUCKET",
	s3BootImageBucket: "S3_BOOT_IMAGES_BUCKET",
	s3UrlExpiration:   "S3_URL_EXPIRATION",
	s3ConnectTimeout:  "S3_CONNECT_TIMEOUT",
	s3ReadTimeout:     "S3_READ_TIMEOUT",
	maxManifestSize:   "MAX_IMAGE_MANIFEST_SIZE_BYTES",

	jobTemplatePath:     "IMS_JOB_TEMPLATE_PATH",
	jobNamespace:        "DEFAULT_IMS_JOB_NAMESPACE",
	jobImageSize:        "DEFAULT_IMS_IMAGE_SIZE",
	jobMemSize:          "DEFAULT_IMS_JOB_MEM_SIZE",
	jobEnableDkms:       "JOB_ENABLE_DKMS",
	jobKataRuntime:      "JOB_KATA_RUNTIME",
	jobAarch64Runtime:   "JOB_AARCH64_RUNTIME",
	jobAccessPool:       "JOB_CUSTOMER_ACCESS_NETWORK_ACCESS_POOL",
	jobAccessSubnetName: "JOB_CUSTOMER_ACCESS_SUBNET_NAME",
	jobAccessDomain:     "JOB_CUSTOMER_ACCESS_NETWORK_DOMAIN",
}
