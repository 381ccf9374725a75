package store_test

import (
	"context"
	"database/sql"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/kubev2v/asset-agent/internal/models"
	"github.com/kubev2v/asset-agent/internal/store"
	"github.com/kubev2v/asset-agent/internal/store/migrations"
	srvErrors "github.com/kubev2v/asset-agent/pkg/errors"
)

func newTestStore(ctx context.Context) (*sql.DB, *store.Store) {
	db, err := store.NewDB(":memory:")
	Expect(err).NotTo(HaveOccurred())

	err = migrations.Run(ctx, db)
	Expect(err).NotTo(HaveOccurred())

	return db, store.NewStore(db)
}

func device(name string, st models.AssetSubtype) models.Asset {
	return models.NewAsset(name, models.AssetTypeDevice, st)
}

var _ = Describe("AssetStore", func() {
	var (
		ctx context.Context
		s   *store.Store
		db  *sql.DB
	)

	BeforeEach(func() {
		ctx = context.Background()
		db, s = newTestStore(ctx)
	})

	AfterEach(func() {
		if db != nil {
			db.Close()
		}
	})

	Context("name resolution", func() {
		var upsID int64

		BeforeEach(func() {
			ups := device("ups", models.SubtypeUPS)
			ups.ExternalName = "Ups"

			var err error
			upsID, err = s.Asset().InsertAsset(ctx, ups, false)
			Expect(err).NotTo(HaveOccurred())
		})

		// Given an asset "ups" with external name "Ups"
		// When we resolve its internal name
		// Then it should return the assigned id
		It("should resolve the internal name to the id", func() {
			id, err := s.Asset().NameToAssetID(ctx, "ups")

			Expect(err).NotTo(HaveOccurred())
			Expect(id).To(Equal(upsID))
		})

		// Given no asset named "_device"
		// When we resolve it
		// Then it should fail with a not found error naming the identifier
		It("should return ElementNotFoundError for an unknown name", func() {
			_, err := s.Asset().NameToAssetID(ctx, "_device")

			Expect(err).To(HaveOccurred())
			Expect(srvErrors.IsElementNotFoundError(err)).To(BeTrue())
			Expect(err.Error()).To(Equal("Element '_device' not found."))
		})

		It("should round-trip name to id to name", func() {
			id, err := s.Asset().NameToAssetID(ctx, "ups")
			Expect(err).NotTo(HaveOccurred())

			name, ename, err := s.Asset().IDToNameExtName(ctx, id)

			Expect(err).NotTo(HaveOccurred())
			Expect(name).To(Equal("ups"))
			Expect(ename).To(Equal("Ups"))
		})

		It("should return ElementNotFoundError for an unknown id", func() {
			_, _, err := s.Asset().IDToNameExtName(ctx, 4242)

			Expect(srvErrors.IsElementNotFoundError(err)).To(BeTrue())
			Expect(err.Error()).To(Equal("Element '4242' not found."))
		})

		It("should resolve the external name", func() {
			name, err := s.Asset().ExtNameToAssetName(ctx, "Ups")
			Expect(err).NotTo(HaveOccurred())
			Expect(name).To(Equal("ups"))

			id, err := s.Asset().ExtNameToAssetID(ctx, "Ups")
			Expect(err).NotTo(HaveOccurred())
			Expect(id).To(Equal(upsID))
		})

		It("should not match the external name case-insensitively", func() {
			_, err := s.Asset().ExtNameToAssetName(ctx, "ups")

			Expect(srvErrors.IsElementNotFoundError(err)).To(BeTrue())
		})

		It("should return ElementNotFoundError for an unknown external name", func() {
			_, err := s.Asset().ExtNameToAssetID(ctx, "Nope")

			Expect(srvErrors.IsElementNotFoundError(err)).To(BeTrue())
			Expect(err.Error()).To(Equal("Element 'Nope' not found."))
		})
	})

	Context("InsertAsset", func() {
		// Given a new asset with defaults left empty
		// When we insert it and select it back
		// Then the row should carry the assigned id and the default values
		It("should persist the asset with defaults", func() {
			a := models.Asset{InternalName: "rack-1", Type: models.AssetTypeRack}

			id, err := s.Asset().InsertAsset(ctx, a, false)
			Expect(err).NotTo(HaveOccurred())

			el, err := s.Asset().SelectByName(ctx, "rack-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(el.ID).To(Equal(id))
			Expect(el.Name).To(Equal("rack-1"))
			Expect(el.Status).To(Equal(models.AssetStatusActive))
			Expect(el.Priority).To(Equal(models.DefaultPriority))
			Expect(el.TypeID).To(Equal(models.AssetTypeRack.ID()))
			Expect(el.SubtypeID).To(Equal(models.SubtypeNA.ID()))
			Expect(el.ParentID).To(BeZero())
		})

		It("should resolve the parent name to parent_id", func() {
			rackID, err := s.Asset().InsertAsset(ctx, models.NewAsset("rack-1", models.AssetTypeRack, ""), false)
			Expect(err).NotTo(HaveOccurred())

			srv := device("srv-1", models.SubtypeServer)
			srv.ParentIname = "rack-1"
			id, err := s.Asset().InsertAsset(ctx, srv, false)
			Expect(err).NotTo(HaveOccurred())

			el, err := s.Asset().SelectByID(ctx, id)
			Expect(err).NotTo(HaveOccurred())
			Expect(el.ParentID).To(Equal(rackID))
		})

		It("should fail with ElementNotFoundError when the parent does not exist", func() {
			srv := device("srv-1", models.SubtypeServer)
			srv.ParentIname = "missing-rack"

			_, err := s.Asset().InsertAsset(ctx, srv, false)

			Expect(srvErrors.IsElementNotFoundError(err)).To(BeTrue())
			Expect(err.Error()).To(ContainSubstring("missing-rack"))
		})

		It("should reject an empty name and an unknown type", func() {
			_, err := s.Asset().InsertAsset(ctx, models.Asset{Type: models.AssetTypeRack}, false)
			Expect(srvErrors.IsInvalidFormatError(err)).To(BeTrue())

			_, err = s.Asset().InsertAsset(ctx, models.Asset{InternalName: "x", Type: "spaceship"}, false)
			Expect(srvErrors.IsInvalidFormatError(err)).To(BeTrue())
		})

		// Given an existing asset
		// When we create it a second time
		// Then it should fail with a conflict and leave a single row
		It("should fail with ConflictError when creating a duplicate name", func() {
			_, err := s.Asset().InsertAsset(ctx, device("srv-1", models.SubtypeServer), false)
			Expect(err).NotTo(HaveOccurred())

			_, err = s.Asset().InsertAsset(ctx, device("srv-1", models.SubtypeServer), false)

			Expect(srvErrors.IsConflictError(err)).To(BeTrue())
			count, err := s.Asset().Count(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(count).To(Equal(1))
		})

		It("should update an existing asset in place", func() {
			id, err := s.Asset().InsertAsset(ctx, device("srv-1", models.SubtypeServer), false)
			Expect(err).NotTo(HaveOccurred())

			updated := device("srv-1", models.SubtypeServer)
			updated.Status = models.AssetStatusSpare
			updated.Priority = 2
			updated.ExternalName = "Server One"
			newID, err := s.Asset().InsertAsset(ctx, updated, true)
			Expect(err).NotTo(HaveOccurred())
			Expect(newID).To(Equal(id))

			el, err := s.Asset().SelectByID(ctx, id)
			Expect(err).NotTo(HaveOccurred())
			Expect(el.Status).To(Equal(models.AssetStatusSpare))
			Expect(el.Priority).To(Equal(2))
			Expect(el.ExternalName).To(Equal("Server One"))
		})

		It("should create the asset when updating a missing one", func() {
			id, err := s.Asset().InsertAsset(ctx, device("srv-1", models.SubtypeServer), true)
			Expect(err).NotTo(HaveOccurred())

			got, err := s.Asset().NameToAssetID(ctx, "srv-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(Equal(id))
		})

		It("should reject an asset becoming its own parent", func() {
			_, err := s.Asset().InsertAsset(ctx, models.NewAsset("rack-1", models.AssetTypeRack, ""), false)
			Expect(err).NotTo(HaveOccurred())

			self := models.NewAsset("rack-1", models.AssetTypeRack, "")
			self.ParentIname = "rack-1"
			_, err = s.Asset().InsertAsset(ctx, self, true)

			Expect(srvErrors.IsInvalidFormatError(err)).To(BeTrue())
		})

		It("should fail with ConflictError when another asset owns the external name", func() {
			a := device("srv-1", models.SubtypeServer)
			a.ExternalName = "Server"
			_, err := s.Asset().InsertAsset(ctx, a, false)
			Expect(err).NotTo(HaveOccurred())

			b := device("srv-2", models.SubtypeServer)
			b.ExternalName = "Server"
			_, err = s.Asset().InsertAsset(ctx, b, false)

			Expect(srvErrors.IsConflictError(err)).To(BeTrue())
			n, err := s.Asset().CountByExternalName(ctx, "Server")
			Expect(err).NotTo(HaveOccurred())
			Expect(n).To(Equal(1))
		})

		It("should keep the external name on an update of the same asset", func() {
			a := device("srv-1", models.SubtypeServer)
			a.ExternalName = "Server"
			_, err := s.Asset().InsertAsset(ctx, a, false)
			Expect(err).NotTo(HaveOccurred())

			_, err = s.Asset().InsertAsset(ctx, a, true)
			Expect(err).NotTo(HaveOccurred())
		})

		// Given an asset with an external name
		// When it is updated without one
		// Then the stored external name should be kept
		It("should keep the stored external name when the update omits it", func() {
			a := device("srv-1", models.SubtypeServer)
			a.ExternalName = "Server"
			id, err := s.Asset().InsertAsset(ctx, a, false)
			Expect(err).NotTo(HaveOccurred())

			update := device("srv-1", models.SubtypeServer)
			update.Priority = 2
			_, err = s.Asset().InsertAsset(ctx, update, true)
			Expect(err).NotTo(HaveOccurred())

			el, err := s.Asset().SelectByID(ctx, id)
			Expect(err).NotTo(HaveOccurred())
			Expect(el.ExternalName).To(Equal("Server"))
			Expect(el.Priority).To(Equal(2))

			got, err := s.Asset().ExtNameToAssetID(ctx, "Server")
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(Equal(id))
		})

		It("should rename and refuse a taken external name", func() {
			a := device("srv-1", models.SubtypeServer)
			a.ExternalName = "Server"
			id, err := s.Asset().InsertAsset(ctx, a, false)
			Expect(err).NotTo(HaveOccurred())
			b := device("srv-2", models.SubtypeServer)
			b.ExternalName = "Other"
			_, err = s.Asset().InsertAsset(ctx, b, false)
			Expect(err).NotTo(HaveOccurred())

			n, err := s.Asset().UpdateExternalName(ctx, id, "srv-1", "Renamed")
			Expect(err).NotTo(HaveOccurred())
			Expect(n).To(Equal(int64(1)))

			_, err = s.Asset().UpdateExternalName(ctx, id, "srv-1", "Other")
			Expect(srvErrors.IsConflictError(err)).To(BeTrue())

			name, err := s.Asset().ExtNameToAssetName(ctx, "Renamed")
			Expect(err).NotTo(HaveOccurred())
			Expect(name).To(Equal("srv-1"))
		})

		// Given two callers creating the same name at the same time
		// When both transactions run
		// Then exactly one row should survive and the loser should get a ConflictError
		It("should not create duplicates under concurrent creates", func() {
			const callers = 2
			var wg sync.WaitGroup
			errs := make([]error, callers)

			for i := 0; i < callers; i++ {
				wg.Add(1)
				go func(i int) {
					defer GinkgoRecover()
					defer wg.Done()
					errs[i] = s.WithTx(ctx, func(tx *store.Store) error {
						_, err := tx.Asset().InsertAsset(ctx, device("contended", models.SubtypeServer), false)
						return err
					})
				}(i)
			}
			wg.Wait()

			failed := 0
			for _, err := range errs {
				if err != nil {
					Expect(srvErrors.IsConflictError(err)).To(BeTrue(), "unexpected error: %v", err)
					failed++
				}
			}
			Expect(failed).To(Equal(callers - 1))

			count, err := s.Asset().Count(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(count).To(Equal(1))
		})
	})

	Context("UpdateStatus and DeleteAsset", func() {
		It("should update the status", func() {
			id, err := s.Asset().InsertAsset(ctx, device("srv-1", models.SubtypeServer), false)
			Expect(err).NotTo(HaveOccurred())

			n, err := s.Asset().UpdateStatus(ctx, id, models.AssetStatusRetired)
			Expect(err).NotTo(HaveOccurred())
			Expect(n).To(Equal(int64(1)))

			el, err := s.Asset().SelectByID(ctx, id)
			Expect(err).NotTo(HaveOccurred())
			Expect(el.Status).To(Equal(models.AssetStatusRetired))
		})

		// Given an existing asset
		// When we delete it twice
		// Then the second delete should affect zero rows without an error
		It("should delete idempotently", func() {
			id, err := s.Asset().InsertAsset(ctx, device("srv-1", models.SubtypeServer), false)
			Expect(err).NotTo(HaveOccurred())

			n, err := s.Asset().DeleteAsset(ctx, id)
			Expect(err).NotTo(HaveOccurred())
			Expect(n).To(Equal(int64(1)))

			n, err = s.Asset().DeleteAsset(ctx, id)
			Expect(err).NotTo(HaveOccurred())
			Expect(n).To(BeZero())

			_, err = s.Asset().SelectByID(ctx, id)
			Expect(srvErrors.IsElementNotFoundError(err)).To(BeTrue())
		})
	})

	Context("counts and listings", func() {
		It("should count assets by ext attribute value", func() {
			for _, name := range []string{"srv-1", "srv-2"} {
				id, err := s.Asset().InsertAsset(ctx, device(name, models.SubtypeServer), false)
				Expect(err).NotTo(HaveOccurred())
				_, err = s.ExtAttributes().Insert(ctx, id, models.ExtAttributes{
					"model": models.NewExtAttribute("R640", false),
				})
				Expect(err).NotTo(HaveOccurred())
			}

			n, err := s.Asset().CountByAttribute(ctx, "model", "R640")
			Expect(err).NotTo(HaveOccurred())
			Expect(n).To(Equal(2))

			n, err = s.Asset().CountByAttribute(ctx, "model", "R740")
			Expect(err).NotTo(HaveOccurred())
			Expect(n).To(BeZero())
		})

		// Given an asset whose display name is stored as its external name
		// When we count by the "name" attribute
		// Then the external name should be counted
		It("should count the display name through the external name", func() {
			ups := device("ups", models.SubtypeUPS)
			ups.ExternalName = "Ups"
			_, err := s.Asset().InsertAsset(ctx, ups, false)
			Expect(err).NotTo(HaveOccurred())

			n, err := s.Asset().CountByAttribute(ctx, models.ExtNameKey, "Ups")
			Expect(err).NotTo(HaveOccurred())
			Expect(n).To(Equal(1))

			n, err = s.Asset().CountByAttribute(ctx, models.ExtNameKey, "ups")
			Expect(err).NotTo(HaveOccurred())
			Expect(n).To(BeZero())
		})

		It("should count children", func() {
			rackID, err := s.Asset().InsertAsset(ctx, models.NewAsset("rack-1", models.AssetTypeRack, ""), false)
			Expect(err).NotTo(HaveOccurred())
			for _, name := range []string{"srv-1", "srv-2"} {
				a := device(name, models.SubtypeServer)
				a.ParentIname = "rack-1"
				_, err := s.Asset().InsertAsset(ctx, a, false)
				Expect(err).NotTo(HaveOccurred())
			}

			n, err := s.Asset().CountChildren(ctx, rackID)
			Expect(err).NotTo(HaveOccurred())
			Expect(n).To(Equal(2))
		})

		It("should list short elements of a type and subtype", func() {
			upsID, err := s.Asset().InsertAsset(ctx, device("ups-1", models.SubtypeUPS), false)
			Expect(err).NotTo(HaveOccurred())
			_, err = s.Asset().InsertAsset(ctx, device("srv-1", models.SubtypeServer), false)
			Expect(err).NotTo(HaveOccurred())

			elements, err := s.Asset().SelectShortElements(ctx, models.AssetTypeDevice.ID(), models.SubtypeUPS.ID())

			Expect(err).NotTo(HaveOccurred())
			Expect(elements).To(Equal([]models.ShortElement{
				{ID: upsID, Name: "ups-1", SubtypeID: models.SubtypeUPS.ID()},
			}))
		})

		It("should return an empty listing when nothing matches", func() {
			elements, err := s.Asset().SelectShortElements(ctx, models.AssetTypeDevice.ID(), models.SubtypeGenset.ID())

			Expect(err).NotTo(HaveOccurred())
			Expect(elements).To(BeEmpty())
		})
	})
})
