package session

import (
	"git.home.luguber.info/inful/zephyrforge/internal/board"
)

// baseOptions is the firmware runtime every project needs: C++ support and
// a USB CDC ACM shell. The mcumgr agent comes with EnableOTA.
func baseOptions(project, version string) []KV {
	return []KV{
		{"CONFIG_CPLUSPLUS", true},
		{"CONFIG_NEWLIB_LIBC", true},
		{"CONFIG_LIB_CPLUSPLUS", true},
		{"CONFIG_STD_CPP14", true},
		{"CONFIG_HARDWARE_DEVICE_CS_GENERATOR", true},
		{"CONFIG_ENTROPY_DEVICE_RANDOM_GENERATOR", true},
		{"CONFIG_REBOOT", true},
		{"CONFIG_SHELL", true},
		{"CONFIG_CONSOLE", true},
		{"CONFIG_UART_INTERRUPT_DRIVEN", true},
		{"CONFIG_MAIN_STACK_SIZE", 3072},
		{"CONFIG_LOG_STRDUP_BUF_COUNT", 300},
		{"CONFIG_LOG_STRDUP_MAX_STRING", 100},
		{"CONFIG_FPU", true},
		{"CONFIG_SERIAL", true},
		{"CONFIG_UART_LINE_CTRL", true},
		{"CONFIG_USB_DEVICE_STACK", true},
		{"CONFIG_USB_DEVICE_PRODUCT", Quote(project + " USB Device")},
		{"CONFIG_USB_CDC_ACM", true},
		{"CONFIG_USB_REQUEST_BUFFER_SIZE", 2048},
		{"CONFIG_USB_CDC_ACM_RINGBUF_SIZE", 2048},
		{"CONFIG_INIT_STACKS", true},
		{"CONFIG_STDOUT_CONSOLE", true},
		{"CONFIG_SHELL_STACK_SIZE", 4096},
		{"CONFIG_SHELL_BACKEND_SERIAL_INIT_PRIORITY", 51},
		{"CONFIG_SHELL_TAB", true},
		{"CONFIG_SHELL_TAB_AUTOCOMPLETION", true},
		{"CONFIG_SHELL_METAKEYS", false},
		{"CONFIG_NET_BUF_USER_DATA_SIZE", 24},
		{"CONFIG_SHELL_MINIMAL", true},
		{"CONFIG_DEBUG", false},
		{"CONFIG_BOOT_BANNER", false},
		{"CONFIG_MCUBOOT_EXTRA_IMGTOOL_ARGS", Quote("--version " + version)},
		{"CONFIG_MBEDTLS_AES_ROM_TABLES", false},
	}
}

// EnableNetwork turns on the IP stack with the device hostname.
func (s *Session) EnableNetwork(hostname string) {
	s.SetOptions([]KV{
		{"CONFIG_NETWORKING", true},
		{"CONFIG_NET_UDP", true},
		{"CONFIG_NET_TCP", true},
		{"CONFIG_NET_HOSTNAME_ENABLE", true},
		{"CONFIG_NET_HOSTNAME", Quote(hostname)},
	})
}

// EnableOTA registers the mcumgr image and OS groups over SMP/UDP, which
// network uploads talk to.
func (s *Session) EnableOTA() {
	s.ota = true
	s.SetOptions([]KV{
		{"CONFIG_MCUMGR", true},
		{"CONFIG_MCUMGR_CMD_IMG_MGMT", true},
		{"CONFIG_MCUMGR_CMD_OS_MGMT", true},
		{"CONFIG_SYSTEM_WORKQUEUE_STACK_SIZE", 2304},
		{"CONFIG_MCUMGR_SMP_UDP", true},
		{"CONFIG_MCUMGR_SMP_UDP_IPV6", true},
	})
}

// OpenThreadParams are the Thread network credentials.
type OpenThreadParams struct {
	NetworkName string
	Channel     int
	NetworkKey  string
	PANID       int
	XPANID      string
}

// EnableOpenThread configures the Thread radio stack with an IPv6-only
// network. Boards without the capability fail with UnsupportedCapabilityError.
func (s *Session) EnableOpenThread(p OpenThreadParams) error {
	if !s.Board.SupportsOpenThread() {
		return &board.UnsupportedCapabilityError{Board: s.Board.Name, Capability: "OpenThread"}
	}
	s.SetOptions([]KV{
		{"CONFIG_NETWORKING", true},
		{"CONFIG_OPENTHREAD_CHANNEL", p.Channel},
		{"CONFIG_OPENTHREAD_NETWORK_NAME", Quote(p.NetworkName)},
		{"CONFIG_OPENTHREAD_XPANID", Quote(p.XPANID)},
		{"CONFIG_OPENTHREAD_PANID", p.PANID},
		{"CONFIG_OPENTHREAD_NETWORKKEY", Quote(p.NetworkKey)},
		{"CONFIG_OPENTHREAD_JOINER", true},
		{"CONFIG_OPENTHREAD_THREAD_VERSION_1_2", true},
		{"CONFIG_OPENTHREAD_SRP_CLIENT", true},
		{"CONFIG_OPENTHREAD_SHELL", false},
		{"CONFIG_NET_IPV4", false},
		{"CONFIG_NET_IPV6", true},
		{"CONFIG_NET_UDP", true},
		{"CONFIG_NET_TCP", true},
		{"CONFIG_OPENTHREAD_TCP_ENABLE", true},
		{"CONFIG_NET_SOCKETS", true},
		{"CONFIG_NET_CONFIG_SETTINGS", true},
		{"CONFIG_SETTINGS_RUNTIME", true},
		{"CONFIG_NET_SOCKETS_POSIX_NAMES", true},
		{"CONFIG_NET_SOCKETS_POLL_MAX", 4},
		{"CONFIG_NET_CONFIG_NEED_IPV6", true},
		{"CONFIG_NET_CONFIG_NEED_IPV4", false},
		{"CONFIG_NET_IF_UNICAST_IPV6_ADDR_COUNT", 20},
		{"CONFIG_NET_IF_MCAST_IPV6_ADDR_COUNT", 20},
		{"CONFIG_OPENTHREAD_IP6_MAX_EXT_UCAST_ADDRS", 10},
		{"CONFIG_OPENTHREAD_IP6_MAX_EXT_MCAST_ADDRS", 10},
		{"CONFIG_NVS", true},
		{"CONFIG_SETTINGS_NVS", true},
		{"CONFIG_ARM_MPU", false},
		{"CONFIG_OPENTHREAD_THREAD_STACK_SIZE", 6144},
		{"CONFIG_MBEDTLS_HEAP_SIZE", 15240},
		{"CONFIG_OPENTHREAD_DHCP6_CLIENT", true},
		{"CONFIG_NET_CONNECTION_MANAGER", true},
		{"CONFIG_NET_PKT_RX_COUNT", 16},
		{"CONFIG_NET_PKT_TX_COUNT", 16},
		{"CONFIG_NET_BUF_RX_COUNT", 100},
		{"CONFIG_NET_BUF_TX_COUNT", 100},
		{"CONFIG_NET_CONTEXT_NET_PKT_POOL", true},
		{"CONFIG_OPENTHREAD_SLAAC", true},
		{"CONFIG_NET_IPV6_MLD", false},
		{"CONFIG_NET_IPV6_NBR_CACHE", false},
		{"CONFIG_NET_L2_OPENTHREAD", true},
		{"CONFIG_OPENTHREAD_CLI_TCP_ENABLE", false},
	})
	return nil
}
