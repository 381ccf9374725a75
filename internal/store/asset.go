package store

import (
	"context"
	"database/sql"

	sq "github.com/Masterminds/squirrel"

	"github.com/kubev2v/asset-agent/internal/models"
	srvErrors "github.com/kubev2v/asset-agent/pkg/errors"
)

const tableAssetElement = "asset_element"

var assetElementColumns = []string{
	"id",
	"name",
	"COALESCE(ename, '')",
	"status",
	"priority",
	"type_id",
	"subtype_id",
	"COALESCE(parent_id, 0)",
}

// AssetStore resolves names and ids and writes asset_element rows.
type AssetStore struct {
	db QueryInterceptor
}

func NewAssetStore(db QueryInterceptor) *AssetStore {
	return &AssetStore{db: db}
}

// NameToAssetID resolves an internal name to its numeric id.
func (s *AssetStore) NameToAssetID(ctx context.Context, name string) (int64, error) {
	var id int64
	err := s.selectOne(ctx, "name to id", name,
		sq.Select("id").From(tableAssetElement).Where(sq.Eq{"name": name}),
		&id)
	return id, err
}

// IDToNameExtName resolves a numeric id to the internal and external names.
func (s *AssetStore) IDToNameExtName(ctx context.Context, id int64) (string, string, error) {
	var name, ename string
	err := s.selectOne(ctx, "id to name", id,
		sq.Select("name", "COALESCE(ename, '')").From(tableAssetElement).Where(sq.Eq{"id": id}),
		&name, &ename)
	return name, ename, err
}

// ExtNameToAssetName resolves an external name to the internal name.
func (s *AssetStore) ExtNameToAssetName(ctx context.Context, ename string) (string, error) {
	var name string
	err := s.selectOne(ctx, "ename to name", ename,
		sq.Select("name").From(tableAssetElement).Where(sq.Eq{"ename": ename}).OrderBy("id").Limit(1),
		&name)
	return name, err
}

// ExtNameToAssetID resolves an external name to the numeric id.
func (s *AssetStore) ExtNameToAssetID(ctx context.Context, ename string) (int64, error) {
	name, err := s.ExtNameToAssetName(ctx, ename)
	if err != nil {
		return 0, err
	}
	return s.NameToAssetID(ctx, name)
}

func (s *AssetStore) SelectByName(ctx context.Context, name string) (*models.AssetElement, error) {
	return s.selectElement(ctx, "select by name", name, sq.Eq{"name": name})
}

func (s *AssetStore) SelectByID(ctx context.Context, id int64) (*models.AssetElement, error) {
	return s.selectElement(ctx, "select by id", id, sq.Eq{"id": id})
}

// InsertAsset writes the asset row keyed by internal name and returns its id.
//
// With isUpdate false the row must not exist yet and a duplicate name yields a
// ConflictError. With isUpdate true an existing row is updated in place and a
// missing one is created; an empty ExternalName leaves the stored one untouched.
func (s *AssetStore) InsertAsset(ctx context.Context, asset models.Asset, isUpdate bool) (int64, error) {
	if asset.InternalName == "" {
		return 0, srvErrors.NewInvalidFormatError("asset internal name is empty")
	}
	if asset.Type.ID() == 0 {
		return 0, srvErrors.NewInvalidFormatError("asset %q has unknown type %q", asset.InternalName, asset.Type)
	}
	asset = withDefaults(asset)

	var parentID sql.NullInt64
	if asset.HasParent() {
		id, err := s.NameToAssetID(ctx, asset.ParentIname)
		if err != nil {
			return 0, err
		}
		parentID = sql.NullInt64{Int64: id, Valid: true}
	}

	if asset.ExternalName != "" {
		n, err := s.countOtherWithExtName(ctx, asset.ExternalName, asset.InternalName)
		if err != nil {
			return 0, err
		}
		if n > 0 {
			return 0, srvErrors.NewConflictError(asset.ExternalName, nil)
		}
	}

	var ename sql.NullString
	if asset.ExternalName != "" {
		ename = sql.NullString{String: asset.ExternalName, Valid: true}
	}

	if isUpdate {
		id, err := s.NameToAssetID(ctx, asset.InternalName)
		switch {
		case err == nil:
			return id, s.update(ctx, id, asset, ename, parentID)
		case !srvErrors.IsElementNotFoundError(err):
			return 0, err
		}
	}

	query, args, err := sq.Insert(tableAssetElement).
		Columns("name", "ename", "type_id", "subtype_id", "status", "priority", "parent_id").
		Values(asset.InternalName, ename, asset.Type.ID(), asset.Subtype.ID(), string(asset.Status), asset.Priority, parentID).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return 0, internal("insert asset", err)
	}

	var id int64
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
		return 0, classify("insert asset", asset.InternalName, err)
	}
	return id, nil
}

func withDefaults(a models.Asset) models.Asset {
	if a.Status == "" {
		a.Status = models.AssetStatusActive
	}
	if a.Priority == 0 {
		a.Priority = models.DefaultPriority
	}
	if a.Subtype.ID() == 0 {
		a.Subtype = models.SubtypeNA
	}
	return a
}

func (s *AssetStore) update(ctx context.Context, id int64, asset models.Asset, ename sql.NullString, parentID sql.NullInt64) error {
	if parentID.Valid && parentID.Int64 == id {
		return srvErrors.NewInvalidFormatError("asset %q cannot be its own parent", asset.InternalName)
	}

	b := sq.Update(tableAssetElement)
	// an update without a display name keeps the stored one
	if ename.Valid {
		b = b.Set("ename", ename)
	}
	query, args, err := b.
		Set("type_id", asset.Type.ID()).
		Set("subtype_id", asset.Subtype.ID()).
		Set("status", string(asset.Status)).
		Set("priority", asset.Priority).
		Set("parent_id", parentID).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return internal("update asset", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return classify("update asset", asset.InternalName, err)
	}
	return nil
}

// UpdateExternalName sets the display name of asset id, named iname. A name owned by
// another asset yields a ConflictError.
func (s *AssetStore) UpdateExternalName(ctx context.Context, id int64, iname, ename string) (int64, error) {
	n, err := s.countOtherWithExtName(ctx, ename, iname)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		return 0, srvErrors.NewConflictError(ename, nil)
	}

	query, args, err := sq.Update(tableAssetElement).
		Set("ename", ename).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return 0, internal("update ename", err)
	}
	return s.exec(ctx, "update ename", id, query, args...)
}

// UpdateStatus sets the status of an existing asset.
func (s *AssetStore) UpdateStatus(ctx context.Context, id int64, status models.AssetStatus) (int64, error) {
	query, args, err := sq.Update(tableAssetElement).
		Set("status", string(status)).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return 0, internal("update status", err)
	}
	return s.exec(ctx, "update status", id, query, args...)
}

// DeleteAsset removes the asset row. Deleting a missing id affects zero rows.
func (s *AssetStore) DeleteAsset(ctx context.Context, id int64) (int64, error) {
	query, args, err := sq.Delete(tableAssetElement).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return 0, internal("delete asset", err)
	}
	return s.exec(ctx, "delete asset", id, query, args...)
}

// CountByAttribute counts assets whose ext attribute key has the given value.
// The display name lives in the ename column and is counted there.
func (s *AssetStore) CountByAttribute(ctx context.Context, key, value string) (int, error) {
	if key == models.ExtNameKey {
		return s.CountByExternalName(ctx, value)
	}
	var n int
	err := s.selectOne(ctx, "count by attribute", key,
		sq.Select("COUNT(DISTINCT asset_id)").From(tableExtAttribute).Where(sq.Eq{"keytag": key, "value": value}),
		&n)
	return n, err
}

// CountByExternalName counts assets carrying the external name.
func (s *AssetStore) CountByExternalName(ctx context.Context, ename string) (int, error) {
	var n int
	err := s.selectOne(ctx, "count by ename", ename,
		sq.Select("COUNT(*)").From(tableAssetElement).Where(sq.Eq{"ename": ename}),
		&n)
	return n, err
}

func (s *AssetStore) countOtherWithExtName(ctx context.Context, ename, name string) (int, error) {
	var n int
	err := s.selectOne(ctx, "count by ename", ename,
		sq.Select("COUNT(*)").From(tableAssetElement).Where(sq.And{sq.Eq{"ename": ename}, sq.NotEq{"name": name}}),
		&n)
	return n, err
}

// CountChildren counts the assets whose parent is id.
func (s *AssetStore) CountChildren(ctx context.Context, id int64) (int, error) {
	var n int
	err := s.selectOne(ctx, "count children", id,
		sq.Select("COUNT(*)").From(tableAssetElement).Where(sq.Eq{"parent_id": id}),
		&n)
	return n, err
}

// Count returns the total number of assets.
func (s *AssetStore) Count(ctx context.Context) (int, error) {
	var n int
	err := s.selectOne(ctx, "count assets", tableAssetElement,
		sq.Select("COUNT(*)").From(tableAssetElement),
		&n)
	return n, err
}

// SelectShortElements lists every asset of the type/subtype pair.
func (s *AssetStore) SelectShortElements(ctx context.Context, typeID, subtypeID int) ([]models.ShortElement, error) {
	query, args, err := sq.Select("id", "name", "subtype_id").
		From(tableAssetElement).
		Where(sq.Eq{"type_id": typeID, "subtype_id": subtypeID}).
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, internal("select short elements", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classify("select short elements", typeID, err)
	}
	defer rows.Close()

	elements := []models.ShortElement{}
	for rows.Next() {
		var e models.ShortElement
		if err := rows.Scan(&e.ID, &e.Name, &e.SubtypeID); err != nil {
			return nil, classify("select short elements", typeID, err)
		}
		elements = append(elements, e)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("select short elements", typeID, err)
	}
	return elements, nil
}

func (s *AssetStore) selectElement(ctx context.Context, op string, element any, where sq.Eq) (*models.AssetElement, error) {
	var e models.AssetElement
	var status string
	err := s.selectOne(ctx, op, element,
		sq.Select(assetElementColumns...).From(tableAssetElement).Where(where),
		&e.ID, &e.Name, &e.ExternalName, &status, &e.Priority, &e.TypeID, &e.SubtypeID, &e.ParentID)
	if err != nil {
		return nil, err
	}
	e.Status = models.AssetStatus(status)
	return &e, nil
}

// selectOne runs a single-row select. A missing row yields an ElementNotFoundError
// carrying element.
func (s *AssetStore) selectOne(ctx context.Context, op string, element any, b sq.SelectBuilder, dest ...any) error {
	query, args, err := b.ToSql()
	if err != nil {
		return internal(op, err)
	}
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(dest...); err != nil {
		return classify(op, element, err)
	}
	return nil
}

func (s *AssetStore) exec(ctx context.Context, op string, element any, query string, args ...any) (int64, error) {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, classify(op, element, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, internal(op, err)
	}
	return n, nil
}
