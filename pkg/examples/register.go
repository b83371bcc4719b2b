package examples

import (
	"github.com/dissect-kit/dissect-go/pkg/model"
	"github.com/dissect-kit/dissect-go/pkg/registry"
)

// All returns every example protocol, in registration order.
func All() []*model.Protocol {
	return []*model.Protocol{UDP(), ARP(), ICMP(), TCP(), Message(), TLV()}
}

// Register adds every example protocol to reg.
func Register(reg *registry.Registry) error {
	for _, p := range All() {
		if err := reg.Register(p); err != nil {
			return err
		}
	}
	return nil
}
