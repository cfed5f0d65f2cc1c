package app_info

// NAME application name used for config and cache paths
const NAME = "infra-mapper"

// VERSION current application version
const VERSION = "v0.1.0"
