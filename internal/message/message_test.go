package message_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/kubev2v/asset-agent/internal/message"
	srvErrors "github.com/kubev2v/asset-agent/pkg/errors"
)

var _ = Describe("Message", func() {
	// Given an asset message with aux and ext sections
	// When it is encoded and decoded
	// Then every field should survive
	It("should decode what it encodes", func() {
		m := message.New("ups", message.OpUpdate)
		m.Aux[message.AuxType] = "device"
		m.Aux[message.AuxParent] = "0"
		m.Ext["name"] = "Ups"

		data, err := m.Encode()
		Expect(err).NotTo(HaveOccurred())

		decoded, err := message.Decode(data)
		Expect(err).NotTo(HaveOccurred())
		Expect(decoded).To(Equal(m))
	})

	It("should encode deterministically", func() {
		m := message.New("ups", message.OpCreate)
		for _, k := range []string{"priority", "type", "subtype", "status", "parent"} {
			m.Aux[k] = k + "-value"
		}

		first, err := m.Encode()
		Expect(err).NotTo(HaveOccurred())
		second, err := m.Encode()
		Expect(err).NotTo(HaveOccurred())
		Expect(second).To(Equal(first))
	})

	It("should initialise empty sections on decode", func() {
		data, err := (&message.Message{Kind: message.KindAsset, Name: "ups", Operation: message.OpGet}).Encode()
		Expect(err).NotTo(HaveOccurred())

		decoded, err := message.Decode(data)

		Expect(err).NotTo(HaveOccurred())
		Expect(decoded.Aux).NotTo(BeNil())
		Expect(decoded.Ext).NotTo(BeNil())
	})

	It("should fail on garbage", func() {
		_, err := message.Decode([]byte{0xff, 0x00, 0x13})
		Expect(err).To(HaveOccurred())
		Expect(srvErrors.IsInvalidFormatError(err)).To(BeTrue())
	})

	It("should parse known operations only", func() {
		op, err := message.ParseOperation("retire")
		Expect(err).NotTo(HaveOccurred())
		Expect(op).To(Equal(message.OpRetire))

		_, err = message.ParseOperation("explode")
		Expect(err).To(HaveOccurred())
	})
})
