// pkg/shared/constants.go

package shared

const (
	AppID       = "microns"
	LogFileName = AppID + ".log"
)

// Manifest naming conventions. Downstream tooling (and operators grepping
// `docker ps`) rely on these, so they are part of the generated contract.
const (
	ContainerPrefix       = "microns_"
	NetworkName           = "BKnetwork"
	RestartPolicy         = "always"
	DefaultComposeVersion = "3.9"
	ServicesBuildRoot     = "./services"
)

const (
	DefaultRegistryFile = "services.json"
	DefaultServicesDir  = "services"
	DefaultDockerDir    = "docker"
	DefaultBaseTemplate = DefaultDockerDir + "/docker-compose.base.yml"
	DefaultManifestFile = DefaultDockerDir + "/docker-compose.generated.yml"
	DefaultListenAddr   = ":8000"
)

const (
	// Permission modes (in octal)
	DirPermStandard  = 0755
	FilePermStandard = 0644
	FilePermOwnerRW  = 0600
)

// Version is stamped at build time via -ldflags.
var Version = "dev"
