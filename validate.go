// Copyright 2024 The TableStore Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package ots

import (
	"math"
	"time"
)

// Validation runs before any network I/O. Every public request type has a
// Validate that returns nil or a *Error of code OTSParameterInvalid; a
// failure never reaches the transport.

func validateTableName(name string) error {
	if name == "" {
		return errParam("Table name must be nonempty.")
	}
	return nil
}

func validateTimestamp(ts time.Time) error {
	if ts.UnixNano()%int64(time.Millisecond) != 0 {
		return errParam("Timestamp must be a multiple of one millisecond.")
	}
	return nil
}

// validatePrimaryKey checks a primary key. Write mutations forbid the
// infinity endpoints; only writes may carry auto-increment placeholders.
func validatePrimaryKey(pk PrimaryKey, allowInfinity, allowAutoIncr bool) error {
	if len(pk) == 0 {
		return errParam("Primary key must be nonempty.")
	}
	for _, c := range pk {
		if c.Name == "" {
			return errParam("Name of primary-key column must be nonempty.")
		}
		switch c.Value.Category() {
		case PKNone:
			return errParam("Value of primary-key column %q is required.", c.Name)
		case PKInfMin, PKInfMax:
			if !allowInfinity {
				return errParam(
					"Infinity is not allowed in primary-key column %q.", c.Name)
			}
		case PKAutoIncrement:
			if !allowAutoIncr {
				return errParam(
					"Auto-increment is not allowed in primary-key column %q.", c.Name)
			}
		}
	}
	return nil
}

func validateAttribute(a Attribute) error {
	if a.Name == "" {
		return errParam("Name of attribute must be nonempty.")
	}
	if a.Value.Category() == AttrNone {
		return errParam("Value of attribute %q is required.", a.Name)
	}
	if a.Value.Category() == AttrFloat {
		if f := a.Value.FloatPoint(); math.IsNaN(f) || math.IsInf(f, 0) {
			return errParam("Value of attribute %q must be finite.", a.Name)
		}
	}
	if ts, ok := a.Timestamp.Get(); ok {
		if err := validateTimestamp(ts); err != nil {
			return err
		}
	}
	return nil
}

func validateCapacityUnit(cu CapacityUnit) error {
	if v, ok := cu.Read.Get(); ok && v < 0 {
		return errParam("Read capacity unit must be non-negative.")
	}
	if v, ok := cu.Write.Get(); ok && v < 0 {
		return errParam("Write capacity unit must be non-negative.")
	}
	return nil
}

func validateTableOptions(opts TableOptions) error {
	if v, ok := opts.MaxVersions.Get(); ok && v <= 0 {
		return errParam("MaxVersions must be positive.")
	}
	if cu, ok := opts.ReservedThroughput.Get(); ok {
		if err := validateCapacityUnit(cu); err != nil {
			return err
		}
	}
	return nil
}

func (c *QueryCriterion) validate() error {
	if err := validateTableName(c.TableName); err != nil {
		return err
	}
	if v, ok := c.MaxVersions.Get(); ok && v <= 0 {
		return errParam("MaxVersions must be positive.")
	}
	if tr, ok := c.TimeRange.Get(); ok {
		start, hasStart := tr.Start.Get()
		end, hasEnd := tr.End.Get()
		if hasStart {
			if err := validateTimestamp(start); err != nil {
				return err
			}
		}
		if hasEnd {
			if err := validateTimestamp(end); err != nil {
				return err
			}
		}
		if hasStart && hasEnd && start.After(end) {
			return errParam("Start of time range must be no later than its end.")
		}
		if sp, ok := tr.Specific.Get(); ok {
			if err := validateTimestamp(sp); err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *CreateTableRequest) Validate() error {
	if err := validateTableName(r.Meta.TableName); err != nil {
		return err
	}
	if len(r.Meta.Schema) == 0 {
		return errParam("Table schema must be nonempty.")
	}
	for _, col := range r.Meta.Schema {
		if col.Name == "" {
			return errParam("Name of primary-key column must be nonempty.")
		}
		if col.AutoIncrement && col.Type != PKTypeInteger {
			return errParam(
				"Auto-increment is only valid on integer column, not %q.", col.Name)
		}
	}
	if err := validateTableOptions(r.Options); err != nil {
		return err
	}
	first := r.Meta.Schema[0]
	for _, sp := range r.ShardSplitPoints {
		if len(sp) != 1 {
			return errParam("Length of shard split point must be exactly one.")
		}
		c := sp[0]
		if !c.Value.IsReal() {
			return errParam("Shard split point must be a real value.")
		}
		ok := false
		switch c.Value.Category() {
		case PKInteger:
			ok = first.Type == PKTypeInteger
		case PKString:
			ok = first.Type == PKTypeString
		case PKBinary:
			ok = first.Type == PKTypeBinary
		}
		if !ok {
			return errParam(
				"Type of shard split point must match first primary-key column %q.",
				first.Name)
		}
	}
	return nil
}

func (r *ListTableRequest) Validate() error { return nil }

func (r *DeleteTableRequest) Validate() error {
	return validateTableName(r.TableName)
}

func (r *DescribeTableRequest) Validate() error {
	return validateTableName(r.TableName)
}

func (r *UpdateTableRequest) Validate() error {
	if err := validateTableName(r.TableName); err != nil {
		return err
	}
	return validateTableOptions(r.Options)
}

func (r *ComputeSplitsBySizeRequest) Validate() error {
	if err := validateTableName(r.TableName); err != nil {
		return err
	}
	if r.SplitSize <= 0 {
		return errParam("Split size must be positive.")
	}
	return nil
}

func (r *GetRowRequest) Validate() error {
	if err := r.Criterion.validate(); err != nil {
		return err
	}
	return validatePrimaryKey(r.Criterion.PrimaryKey, false, false)
}

func (c *RowPutChange) Validate() error {
	if err := validateTableName(c.TableName); err != nil {
		return err
	}
	if err := validatePrimaryKey(c.PrimaryKey, false, true); err != nil {
		return err
	}
	for _, a := range c.Attributes {
		if err := validateAttribute(a); err != nil {
			return err
		}
	}
	return nil
}

func (c *RowUpdateChange) Validate() error {
	if err := validateTableName(c.TableName); err != nil {
		return err
	}
	if err := validatePrimaryKey(c.PrimaryKey, false, true); err != nil {
		return err
	}
	if len(c.Updates) == 0 {
		return errParam("Updates of a row-update change must be nonempty.")
	}
	for _, u := range c.Updates {
		if u.Name == "" {
			return errParam("Name of attribute must be nonempty.")
		}
		v, hasValue := u.Value.Get()
		ts, hasTs := u.Timestamp.Get()
		if hasTs {
			if err := validateTimestamp(ts); err != nil {
				return err
			}
		}
		switch u.Op {
		case UpdatePut:
			if !hasValue {
				return errParam("Value to put on attribute %q is required.", u.Name)
			}
			if v.Category() == AttrFloat {
				if f := v.FloatPoint(); math.IsNaN(f) || math.IsInf(f, 0) {
					return errParam("Value of attribute %q must be finite.", u.Name)
				}
			}
		case UpdateDelete:
			if hasValue {
				return errParam(
					"Value must be absent on deleting a version of attribute %q.", u.Name)
			}
			if !hasTs {
				return errParam(
					"Timestamp is required on deleting a version of attribute %q.", u.Name)
			}
		case UpdateDeleteAll:
			if hasValue || hasTs {
				return errParam(
					"Neither value nor timestamp is allowed on deleting attribute %q.",
					u.Name)
			}
		}
	}
	return nil
}

func (c *RowDeleteChange) Validate() error {
	if err := validateTableName(c.TableName); err != nil {
		return err
	}
	return validatePrimaryKey(c.PrimaryKey, false, false)
}

func (r *PutRowRequest) Validate() error    { return r.Change.Validate() }
func (r *UpdateRowRequest) Validate() error { return r.Change.Validate() }
func (r *DeleteRowRequest) Validate() error { return r.Change.Validate() }

func (r *GetRangeRequest) Validate() error {
	cr := &r.Criterion
	if err := cr.QueryCriterion.validate(); err != nil {
		return err
	}
	if err := validatePrimaryKey(cr.InclusiveStart, true, false); err != nil {
		return err
	}
	if err := validatePrimaryKey(cr.ExclusiveEnd, true, false); err != nil {
		return err
	}
	if v, ok := cr.Limit.Get(); ok && v <= 0 {
		return errParam("Limit must be positive.")
	}
	cmp := cr.InclusiveStart.Compare(cr.ExclusiveEnd)
	switch cr.Direction {
	case Forward:
		if cmp != Smaller && cmp != Equivalent {
			return errParam(
				"Start of a forward range must be no greater than its end.")
		}
	case Backward:
		if cmp != Larger && cmp != Equivalent {
			return errParam(
				"Start of a backward range must be no smaller than its end.")
		}
	default:
		return errParam("Unknown range direction.")
	}
	return nil
}

func (r *BatchGetRowRequest) Validate() error {
	if len(r.Criteria) == 0 {
		return errParam("Criteria of a batch-get must be nonempty.")
	}
	for i := range r.Criteria {
		cr := &r.Criteria[i]
		if err := cr.QueryCriterion.validate(); err != nil {
			return err
		}
		if len(cr.PrimaryKeys) == 0 {
			return errParam("Primary keys of a batch-get criterion must be nonempty.")
		}
		for _, pk := range cr.PrimaryKeys {
			if err := validatePrimaryKey(pk, false, false); err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *BatchWriteRowRequest) Validate() error {
	if r.Size() == 0 {
		return errParam("A batch-write must carry at least one row.")
	}
	for i := range r.Puts {
		if err := r.Puts[i].Validate(); err != nil {
			return err
		}
	}
	for i := range r.Updates {
		if err := r.Updates[i].Validate(); err != nil {
			return err
		}
	}
	for i := range r.Deletes {
		if err := r.Deletes[i].Validate(); err != nil {
			return err
		}
	}
	return nil
}
