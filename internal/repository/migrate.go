package repository

import (
	"context"
	"fmt"

	"entgo.io/ent/dialect"
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

const (
	ordersTable       = "orders"
	contactsTable     = "contacts"
	analysisRunsTable = "analysis_runs"
)

// Postgres would otherwise get varchar; both dialects store TEXT.
var textType = map[string]string{dialect.Postgres: "text"}

func textColumn(name string, nullable bool) *schema.Column {
	c := &schema.Column{Name: name, Type: field.TypeString, SchemaType: textType, Nullable: nullable}
	if !nullable {
		c.Default = ""
	}
	return c
}

var (
	// OrdersColumns holds the columns for the "orders" table.
	OrdersColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString, SchemaType: textType},
		textColumn("order_no", false),
		{Name: "fee", Type: field.TypeInt, Nullable: true},
		textColumn("start_date", false),
		textColumn("end_date", false),
		textColumn("contact", false),
		textColumn("status", false),
		textColumn("remarks", false),
		textColumn("source_text", false),
		textColumn("created_at", false),
		textColumn("updated_at", false),
	}
	// OrdersTable holds the schema information for the "orders" table.
	OrdersTable = &schema.Table{
		Name:       ordersTable,
		Columns:    OrdersColumns,
		PrimaryKey: []*schema.Column{OrdersColumns[0]},
		Indexes: []*schema.Index{
			{Name: "orders_status_end_date", Columns: []*schema.Column{OrdersColumns[6], OrdersColumns[4]}},
			{Name: "orders_order_no", Columns: []*schema.Column{OrdersColumns[1]}},
		},
	}

	// ContactsColumns holds the columns for the "contacts" table.
	ContactsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString, SchemaType: textType},
		{Name: "name", Type: field.TypeString, SchemaType: textType, Unique: true},
		textColumn("phone", true),
		textColumn("note", true),
		{Name: "priority", Type: field.TypeInt, Default: 0},
		textColumn("created_at", false),
	}
	ContactsTable = &schema.Table{
		Name:       contactsTable,
		Columns:    ContactsColumns,
		PrimaryKey: []*schema.Column{ContactsColumns[0]},
	}

	// AnalysisRunsColumns holds the columns for the "analysis_runs" table.
	AnalysisRunsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString, SchemaType: textType},
		textColumn("order_id", true),
		textColumn("source", false),
		textColumn("format", false),
		textColumn("input_text", false),
		textColumn("started_at", false),
		textColumn("finished_at", true),
		textColumn("status", false),
		textColumn("error_message", true),
		textColumn("result_json", true),
	}
	AnalysisRunsTable = &schema.Table{
		Name:       analysisRunsTable,
		Columns:    AnalysisRunsColumns,
		PrimaryKey: []*schema.Column{AnalysisRunsColumns[0]},
		ForeignKeys: []*schema.ForeignKey{
			{
				Symbol:     "analysis_runs_orders_runs",
				Columns:    []*schema.Column{AnalysisRunsColumns[1]},
				RefColumns: []*schema.Column{OrdersColumns[0]},
				OnDelete:   schema.SetNull,
			},
		},
		Indexes: []*schema.Index{
			{Name: "analysis_runs_status", Columns: []*schema.Column{AnalysisRunsColumns[7]}},
		},
	}

	// Tables holds all the tables in the schema.
	Tables = []*schema.Table{
		OrdersTable,
		ContactsTable,
		AnalysisRunsTable,
	}
)

func init() {
	AnalysisRunsTable.ForeignKeys[0].RefTable = OrdersTable
}

// Migrate creates missing tables, columns and indexes. It never drops anything.
func (d *DB) Migrate(ctx context.Context) error {
	m, err := schema.NewMigrate(d.drv, schema.WithForeignKeys(true))
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	if err := m.Create(ctx, Tables...); err != nil {
		d.logger.Error("migration failed", "dialect", d.dialect, "error", err)
		return fmt.Errorf("migrate: %w", err)
	}
	d.logger.Info("database migrated", "dialect", d.dialect)
	return nil
}
