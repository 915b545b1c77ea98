package store

import (
	"context"
	"database/sql/driver"
	"fmt"

	goduckdb "github.com/marcboeker/go-duckdb"

	"github.com/inodb/gestalt/internal/results"
)

// CombinedLayer is the layer index of cross-layer combined rows.
const CombinedLayer int64 = -1

// appendRows opens an appender on table and calls fill with it.
func (s *Store) appendRows(table string, fill func(a *goduckdb.Appender) error) error {
	conn, err := s.db.Conn(context.Background())
	if err != nil {
		return fmt.Errorf("get connection: %w", err)
	}
	defer conn.Close()

	var appender *goduckdb.Appender
	if err := conn.Raw(func(driverConn any) error {
		var err error
		appender, err = goduckdb.NewAppenderFromConn(driverConn.(driver.Conn), "", table)
		return err
	}); err != nil {
		return fmt.Errorf("create appender: %w", err)
	}
	defer appender.Close()

	if err := fill(appender); err != nil {
		return err
	}
	return appender.Flush()
}

// WriteORA appends an ORA table under run and layer.
func (s *Store) WriteORA(run string, layer int64, t results.ORATable) error {
	if t.Len() == 0 {
		return nil
	}
	return s.appendRows("ora_results", func(a *goduckdb.Appender) error {
		for i, set := range t.GeneSet {
			if err := a.AppendRow(run, layer, set,
				t.P[i], t.FDR[i], t.Expect[i], t.Overlap[i], t.EnrichmentRatio[i],
			); err != nil {
				return fmt.Errorf("append ora result: %w", err)
			}
		}
		return nil
	})
}

// WriteORABatch appends every layer of b and its combined table.
func (s *Store) WriteORABatch(run string, b results.ORABatch) error {
	for i, t := range b.Layers {
		if err := s.WriteORA(run, int64(i), t); err != nil {
			return fmt.Errorf("layer %d: %w", i, err)
		}
	}
	return s.WriteORA(run, CombinedLayer, b.Combined)
}

// WriteGSEA appends a GSEA table under run and layer, with one
// gsea_running_sum row per trajectory position.
func (s *Store) WriteGSEA(run string, layer int64, t results.GSEATable) error {
	if t.Len() == 0 {
		return nil
	}
	err := s.appendRows("gsea_results", func(a *goduckdb.Appender) error {
		for i, set := range t.GeneSets {
			if err := a.AppendRow(run, layer, set,
				t.ES[i], t.NES[i], t.PVal[i], t.FDR[i], int64(t.LeadingEdge[i]),
			); err != nil {
				return fmt.Errorf("append gsea result: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	return s.appendRows("gsea_running_sum", func(a *goduckdb.Appender) error {
		for _, set := range t.GeneSets {
			for pos, v := range t.RunningSum[set] {
				if err := a.AppendRow(run, layer, set, int64(pos), v); err != nil {
					return fmt.Errorf("append running sum: %w", err)
				}
			}
		}
		return nil
	})
}

// WriteGSEABatch appends every layer of b and its combined table.
func (s *Store) WriteGSEABatch(run string, b results.GSEABatch) error {
	for i, t := range b.Layers {
		if err := s.WriteGSEA(run, int64(i), t); err != nil {
			return fmt.Errorf("layer %d: %w", i, err)
		}
	}
	return s.WriteGSEA(run, CombinedLayer, b.Combined)
}

// ReadORA returns the ORA rows of run and layer ordered by gene set.
func (s *Store) ReadORA(run string, layer int64) (results.ORATable, error) {
	rows, err := s.db.Query(`SELECT gene_set, p, fdr, expect, overlap, enrichment_ratio
		FROM ora_results WHERE run = ? AND layer = ? ORDER BY gene_set`, run, layer)
	if err != nil {
		return results.ORATable{}, fmt.Errorf("query ora results: %w", err)
	}
	defer rows.Close()

	t := results.NewORATable(nil)
	for rows.Next() {
		var (
			set             string
			p, fdr, exp, er float64
			overlap         int64
		)
		if err := rows.Scan(&set, &p, &fdr, &exp, &overlap, &er); err != nil {
			return results.ORATable{}, fmt.Errorf("scan ora result: %w", err)
		}
		t.GeneSet = append(t.GeneSet, set)
		t.P = append(t.P, p)
		t.FDR = append(t.FDR, fdr)
		t.Expect = append(t.Expect, exp)
		t.Overlap = append(t.Overlap, overlap)
		t.EnrichmentRatio = append(t.EnrichmentRatio, er)
	}
	if err := rows.Err(); err != nil {
		return results.ORATable{}, fmt.Errorf("iterate ora results: %w", err)
	}
	return t, nil
}

// ReadGSEA returns the GSEA rows of run and layer ordered by gene set,
// with their running sums.
func (s *Store) ReadGSEA(run string, layer int64) (results.GSEATable, error) {
	rows, err := s.db.Query(`SELECT gene_set, es, nes, p_val, fdr, leading_edge
		FROM gsea_results WHERE run = ? AND layer = ? ORDER BY gene_set`, run, layer)
	if err != nil {
		return results.GSEATable{}, fmt.Errorf("query gsea results: %w", err)
	}
	defer rows.Close()

	t := results.NewGSEATable(nil)
	for rows.Next() {
		var (
			set             string
			es, nes, p, fdr float64
			leadingEdge     int64
		)
		if err := rows.Scan(&set, &es, &nes, &p, &fdr, &leadingEdge); err != nil {
			return results.GSEATable{}, fmt.Errorf("scan gsea result: %w", err)
		}
		t.GeneSets = append(t.GeneSets, set)
		t.ES = append(t.ES, es)
		t.NES = append(t.NES, nes)
		t.PVal = append(t.PVal, p)
		t.FDR = append(t.FDR, fdr)
		t.LeadingEdge = append(t.LeadingEdge, int(leadingEdge))
	}
	if err := rows.Err(); err != nil {
		return results.GSEATable{}, fmt.Errorf("iterate gsea results: %w", err)
	}

	sums, err := s.db.Query(`SELECT gene_set, value FROM gsea_running_sum
		WHERE run = ? AND layer = ? ORDER BY gene_set, position`, run, layer)
	if err != nil {
		return results.GSEATable{}, fmt.Errorf("query running sums: %w", err)
	}
	defer sums.Close()
	for sums.Next() {
		var (
			set string
			v   float64
		)
		if err := sums.Scan(&set, &v); err != nil {
			return results.GSEATable{}, fmt.Errorf("scan running sum: %w", err)
		}
		t.RunningSum[set] = append(t.RunningSum[set], v)
	}
	if err := sums.Err(); err != nil {
		return results.GSEATable{}, fmt.Errorf("iterate running sums: %w", err)
	}
	return t, nil
}
