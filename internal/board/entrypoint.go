package board

import (
	"strings"
)

// Markers delimiting the generated main() block in the application source.
const (
	MainBlockBegin = "// ========== AUTO GENERATED ZEPHYR MAIN BLOCK BEGIN ==========="
	MainBlockEnd   = "// ========== AUTO GENERATED ZEPHYR MAIN BLOCK END ==========="
)

// EntrypointOptions toggles optional parts of the generated main().
type EntrypointOptions struct {
	// OTA registers the mcumgr image and OS groups and opens SMP over UDP
	// once the network is up.
	OTA bool
}

const smpUDPGlue = `#include <mgmt/mcumgr/smp_udp.h>
#include <net/net_mgmt.h>
#include <net/net_event.h>
#include <net/net_conn_mgr.h>

#include <logging/log.h>

#include "img_mgmt/img_mgmt.h"
#include "os_mgmt/os_mgmt.h"

LOG_MODULE_REGISTER(zephyrforge_smp);

#define EVENT_MASK (NET_EVENT_L4_CONNECTED | NET_EVENT_L4_DISCONNECTED)

static struct net_mgmt_event_callback mgmt_cb;

static void event_handler(struct net_mgmt_event_callback *cb,
			  uint32_t mgmt_event, struct net_if *iface)
{
	if ((mgmt_event & EVENT_MASK) != mgmt_event) {
		return;
	}

	if (mgmt_event == NET_EVENT_L4_CONNECTED) {
		LOG_INF("Network connected");
		if (smp_udp_open() < 0) {
			LOG_ERR("could not open smp udp");
		}
		return;
	}

	if (mgmt_event == NET_EVENT_L4_DISCONNECTED) {
		LOG_INF("Network disconnected");
		smp_udp_close();
	}
}

static void start_smp_udp(void)
{
	net_mgmt_init_event_callback(&mgmt_cb, event_handler, EVENT_MASK);
	net_mgmt_add_event_callback(&mgmt_cb);
	net_conn_mgr_resend_status();
}

`

// EmitMainEntrypoint returns source with the generated main() block
// replaced, or appended when the source has none yet. Applying it twice
// yields the same text as applying it once.
func (d *Descriptor) EmitMainEntrypoint(source string, opts EntrypointOptions) string {
	block := d.mainBlock(opts)

	begin := strings.Index(source, MainBlockBegin)
	if begin < 0 {
		if source != "" && !strings.HasSuffix(source, "\n") {
			source += "\n"
		}
		return source + block
	}

	rest := source[begin:]
	end := strings.Index(rest, MainBlockEnd)
	if end < 0 {
		// Unterminated block: everything after the marker is ours.
		return source[:begin] + block
	}
	tail := rest[end+len(MainBlockEnd):]
	tail = strings.TrimPrefix(tail, "\n")
	return source[:begin] + block + tail
}

func (d *Descriptor) mainBlock(opts EntrypointOptions) string {
	chosen := d.ShellChosen
	if chosen == "" {
		chosen = "zephyr_console"
	}

	var b strings.Builder
	b.WriteString(MainBlockBegin + "\n")
	b.WriteString("#include <device.h>\n#include <usb/usb_device.h>\n\n")
	if opts.OTA {
		b.WriteString(smpUDPGlue)
	}
	b.WriteString("void main(void)\n{\n")
	b.WriteString("\tconst struct device *dev = DEVICE_DT_GET(DT_CHOSEN(" + chosen + "));\n\n")
	b.WriteString("\tif (!device_is_ready(dev) || usb_enable(NULL)) {\n\t\treturn;\n\t}\n\n")
	if opts.OTA {
		b.WriteString("\tstart_smp_udp();\n\timg_mgmt_register_group();\n\tos_mgmt_register_group();\n\n")
	}
	b.WriteString("\tsetup();\n\twhile (1) {\n\t\tloop();\n\t}\n}\n")
	b.WriteString(MainBlockEnd + "\n")
	return b.String()
}
