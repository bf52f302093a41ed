package postgresql

import (
	"context"
	"database/sql"
	"fmt"

	"campus_parking/internal/domain"
	"campus_parking/internal/repository"

	"gopkg.in/guregu/null.v4"
)

// Hai chiến lược đọc danh sách chỗ đỗ: richSlotReader join thêm thông
// tin bãi đỗ và cột fixed_for, simpleSlotReader dùng cho schema cũ chưa
// migrate (các cột đó trả về null). Chiến lược được chọn MỘT LẦN lúc
// khởi động bằng DetectRichSlotSchema, không phải cờ kiểm tra mỗi request.

type richSlotReader struct {
	db *sql.DB
}

func NewRichSlotReader(db *sql.DB) repository.SlotViewReader {
	return &richSlotReader{db: db}
}

func (r *richSlotReader) ListSlotViews(ctx context.Context) ([]domain.SlotView, error) {
	query := `SELECT s.slot_id, s.lot_id, p.name AS lot_name, p.owner AS lot_owner,
	                 s.slot_name, s.slot_type, s.status, s.fixed_for
	           FROM parking_slots s
	           JOIN parking_lots p ON s.lot_id = p.lot_id
	           ORDER BY s.lot_id, s.slot_name`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("SlotViewReader (rich): %w", err)
	}
	defer rows.Close()

	var views []domain.SlotView
	for rows.Next() {
		var v domain.SlotView
		if err := rows.Scan(&v.SlotID, &v.LotID, &v.LotName, &v.LotOwner,
			&v.SlotName, &v.SlotType, &v.Status, &v.FixedFor); err != nil {
			return nil, fmt.Errorf("SlotViewReader (rich, scanning row): %w", err)
		}
		views = append(views, v)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("SlotViewReader (rich, rows error): %w", err)
	}
	return views, nil
}

type simpleSlotReader struct {
	db *sql.DB
}

func NewSimpleSlotReader(db *sql.DB) repository.SlotViewReader {
	return &simpleSlotReader{db: db}
}

func (r *simpleSlotReader) ListSlotViews(ctx context.Context) ([]domain.SlotView, error) {
	query := `SELECT slot_id, lot_id, slot_name, slot_type, status
	           FROM parking_slots ORDER BY slot_name`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("SlotViewReader (simple): %w", err)
	}
	defer rows.Close()

	var views []domain.SlotView
	for rows.Next() {
		var v domain.SlotView
		if err := rows.Scan(&v.SlotID, &v.LotID, &v.SlotName, &v.SlotType, &v.Status); err != nil {
			return nil, fmt.Errorf("SlotViewReader (simple, scanning row): %w", err)
		}
		// lot_name, lot_owner, fixed_for không có trong schema này
		v.LotName = null.String{}
		v.LotOwner = null.String{}
		v.FixedFor = null.String{}
		views = append(views, v)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("SlotViewReader (simple, rows error): %w", err)
	}
	return views, nil
}

// DetectRichSlotSchema kiểm tra một lần lúc khởi động xem schema có bảng
// parking_lots và cột parking_slots.fixed_for hay không.
func DetectRichSlotSchema(ctx context.Context, db *sql.DB) (bool, error) {
	var lotTables, slotCols int
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM information_schema.tables
		  WHERE table_schema = current_schema() AND table_name = 'parking_lots'`).Scan(&lotTables)
	if err != nil {
		return false, fmt.Errorf("lỗi kiểm tra bảng parking_lots: %w", err)
	}
	err = db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM information_schema.columns
		  WHERE table_schema = current_schema() AND table_name = 'parking_slots' AND column_name = 'fixed_for'`).Scan(&slotCols)
	if err != nil {
		return false, fmt.Errorf("lỗi kiểm tra cột fixed_for: %w", err)
	}
	return lotTables > 0 && slotCols > 0, nil
}
