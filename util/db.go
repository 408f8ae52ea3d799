package util

import (
	"context"
	"database/sql"
)

type Queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func QueryReturnList(ctx context.Context, db Queryer, sqlText string, args ...any) (rows [][]string, err error) {
	//执行sql，返回二维数组
	var cur *sql.Rows
	cur, err = db.QueryContext(ctx, sqlText, args...)
	if err != nil {
		return
	}
	defer cur.Close()

	cols, err := cur.Columns()
	if err != nil {
		return
	}

	values := make([]sql.RawBytes, len(cols))
	valuesP := make([]interface{}, len(cols))
	for i := range values {
		valuesP[i] = &values[i]
	}

	for cur.Next() {
		err = cur.Scan(valuesP...)
		if err != nil {
			return
		}
		row := make([]string, len(cols)) //RawBytes is reused by Next, copy every row
		for i, v := range values {
			if v == nil {
				row[i] = "NULL"
			} else {
				row[i] = string(v)
			}
		}

		rows = append(rows, row)
	}
	err = cur.Err()
	return
}

func QueryReturnDict(ctx context.Context, db Queryer, sqlText string, args ...any) ([]map[string]string, error) {
	//执行sql，返回二维map
	cur, err := db.QueryContext(ctx, sqlText, args...)
	if err != nil {
		return nil, err
	}
	defer cur.Close()

	cols, err := cur.Columns()
	if err != nil {
		return nil, err
	}

	values := make([]sql.RawBytes, len(cols))
	valuesP := make([]interface{}, len(cols))
	for i := range values {
		valuesP[i] = &values[i]
	}

	data := []map[string]string{}
	for cur.Next() {
		err := cur.Scan(valuesP...)
		if err != nil {
			return nil, err
		}
		row := make(map[string]string, len(cols))
		for i, v := range values {
			if v == nil {
				row[cols[i]] = "NULL"
			} else {
				row[cols[i]] = string(v)
			}
		}

		data = append(data, row)
	}
	return data, cur.Err()
}

// QueryColumn returns the first column of every row.
func QueryColumn(ctx context.Context, db Queryer, sqlText string, args ...any) ([]string, error) {
	rows, err := QueryReturnList(ctx, db, sqlText, args...)
	if err != nil {
		return nil, err
	}
	list := make([]string, 0, len(rows))
	for _, r := range rows {
		list = append(list, r[0])
	}
	return list, nil
}
