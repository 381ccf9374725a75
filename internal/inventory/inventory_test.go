package inventory_test

import (
	"context"
	"database/sql"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/kubev2v/asset-agent/internal/inventory"
	"github.com/kubev2v/asset-agent/internal/models"
	"github.com/kubev2v/asset-agent/internal/services"
	"github.com/kubev2v/asset-agent/internal/store"
	"github.com/kubev2v/asset-agent/internal/store/migrations"
	srvErrors "github.com/kubev2v/asset-agent/pkg/errors"
)

const sampleInventory = `
assets:
  - name: srv-1
    ename: Server One
    type: device
    subtype: server
    parent: rack-1
    groups: [all-servers]
    ext:
      - serial_no: ABC
        read_only: true
      - u_size: 2
        read_only: false
  - name: rack-1
    type: rack
    parent: dc-1
  - name: dc-1
    type: datacenter
    priority: 1
  - name: all-servers
    type: group
  - name: ups-1
    type: device
    subtype: ups
power_links:
  - src: ups-1
    dest: srv-1
    src_out: "1"
    dest_in: PSU1
`

var _ = Describe("Inventory", func() {
	Context("Load", func() {
		// Given a YAML inventory listing children before parents
		// When we load and validate it
		// Then parents should come first
		It("should order parents before children", func() {
			inv, err := inventory.Load(strings.NewReader(sampleInventory))
			Expect(err).NotTo(HaveOccurred())

			items, err := inv.Items()
			Expect(err).NotTo(HaveOccurred())

			pos := map[string]int{}
			for i, it := range items {
				pos[it.Asset.InternalName] = i
			}
			Expect(pos["dc-1"]).To(BeNumerically("<", pos["rack-1"]))
			Expect(pos["rack-1"]).To(BeNumerically("<", pos["srv-1"]))
		})

		It("should parse the ext list form", func() {
			inv, err := inventory.Load(strings.NewReader(sampleInventory))
			Expect(err).NotTo(HaveOccurred())
			items, err := inv.Items()
			Expect(err).NotTo(HaveOccurred())

			for _, it := range items {
				if it.Asset.InternalName != "srv-1" {
					continue
				}
				Expect(it.Asset.ExternalName).To(Equal("Server One"))
				Expect(it.Asset.ExtAttributes.Values()).To(Equal(map[string]string{"serial_no": "ABC", "u_size": "2"}))
				Expect(it.Asset.ExtAttributes["serial_no"].ReadOnly).To(BeTrue())
				Expect(it.Groups).To(Equal([]string{"all-servers"}))
			}
		})

		It("should accept JSON", func() {
			inv, err := inventory.Load(strings.NewReader(`{"assets": [{"name": "dc-1", "type": "datacenter", "ext": [{"name": "DC One", "read_only": true}]}]}`))
			Expect(err).NotTo(HaveOccurred())

			items, err := inv.Items()
			Expect(err).NotTo(HaveOccurred())
			Expect(items).To(HaveLen(1))
			Expect(items[0].Asset.ExternalName).To(Equal("DC One"))
			Expect(items[0].Asset.ExtAttributes).To(BeEmpty())
		})

		DescribeTable("should reject invalid entries",
			func(doc string) {
				inv, err := inventory.Load(strings.NewReader(doc))
				if err == nil {
					_, err = inv.Items()
				}

				Expect(err).To(HaveOccurred())
				Expect(srvErrors.IsInvalidFormatError(err) || srvErrors.IsCycleDetectedError(err)).To(BeTrue())
			},
			Entry("not yaml", "assets: [\n"),
			Entry("missing name", "assets:\n  - type: rack\n"),
			Entry("unknown type", "assets:\n  - name: x\n    type: spaceship\n"),
			Entry("bad ext shape", "assets:\n  - name: x\n    type: rack\n    ext:\n      serial_no: ABC\n"),
			Entry("duplicate", "assets:\n  - name: x\n    type: rack\n  - name: x\n    type: rack\n"),
			Entry("parent loop", "assets:\n  - name: a\n    type: rack\n    parent: b\n  - name: b\n    type: rack\n    parent: a\n"),
		)
	})

	Context("Import", func() {
		var (
			ctx context.Context
			db  *sql.DB
			srv *services.AssetService
		)

		BeforeEach(func() {
			ctx = context.Background()

			var err error
			db, err = store.NewDB(":memory:")
			Expect(err).NotTo(HaveOccurred())
			Expect(migrations.Run(ctx, db)).To(Succeed())
			srv = services.NewAssetService(store.NewStore(db))
		})

		AfterEach(func() {
			if db != nil {
				db.Close()
			}
		})

		// Given the sample inventory
		// When we import it twice
		// Then every asset, group link and power link should exist once
		It("should import assets, groups and power links idempotently", func() {
			inv, err := inventory.Load(strings.NewReader(sampleInventory))
			Expect(err).NotTo(HaveOccurred())
			importer := inventory.NewImporter(srv)

			res, err := importer.Import(ctx, inv)
			Expect(err).NotTo(HaveOccurred())
			Expect(res).To(Equal(inventory.Result{Assets: 5, GroupLinks: 1, PowerLinks: 1}))

			res, err = importer.Import(ctx, inv)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.GroupLinks).To(BeZero())

			got, err := srv.Get(ctx, "srv-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(got.ParentIname).To(Equal("rack-1"))
			Expect(got.ExtAttributes.Values()).To(HaveKeyWithValue("serial_no", "ABC"))

			groups, err := srv.Groups(ctx, "srv-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(groups).To(HaveLen(1))

			chain, err := srv.PowerTopology(ctx, "srv-1", models.PowerUpstream)
			Expect(err).NotTo(HaveOccurred())
			Expect(chain).To(HaveLen(1))
		})

		It("should fail when a parent is neither in the file nor stored", func() {
			inv, err := inventory.Load(strings.NewReader("assets:\n  - name: x\n    type: rack\n    parent: nowhere\n"))
			Expect(err).NotTo(HaveOccurred())

			_, err = inventory.NewImporter(srv).Import(ctx, inv)

			Expect(srvErrors.IsElementNotFoundError(err)).To(BeTrue())
		})
	})
})
