package store

import (
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
)

// aggStageAddField adds (or replaces) a single computed field.
func aggStageAddField(field string, expr interface{}) bson.M {
	return bson.M{
		"$addFields": bson.M{
			field: expr,
		},
	}
}

// aggStageLookup joins documents of another collection whose foreignField
// equals localField into the array `as`.
func aggStageLookup(from, localField, foreignField, as string) bson.M {
	return bson.M{
		"$lookup": bson.M{
			"from":         from,
			"localField":   localField,
			"foreignField": foreignField,
			"as":           as,
		},
	}
}

// aggStageUnwind flattens an array field. Documents with a missing or empty
// array are dropped, which turns a preceding $lookup into an inner join.
func aggStageUnwind(field string) bson.M {
	return bson.M{
		"$unwind": bson.M{
			"path":                       specifyField(field),
			"preserveNullAndEmptyArrays": false,
		},
	}
}

func aggStageMatch(filter bson.M) bson.M {
	return bson.M{
		"$match": filter,
	}
}

func aggStageSort(keys bson.D) bson.M {
	return bson.M{
		"$sort": keys,
	}
}

func aggStageSkip(skip int64) bson.M {
	return bson.M{
		"$skip": skip,
	}
}

func aggStageLimit(limit int64) bson.M {
	return bson.M{
		"$limit": limit,
	}
}

// exprSwitch builds a $switch expression from ordered branches.
/*
{
	$switch: {
		branches: [
			{ case: <expression>, then: <expression> },
			...
		],
		default: <expression>
	}
}
*/
func exprSwitch(branches bson.A, defaultValue interface{}) bson.M {
	return bson.M{
		"$switch": bson.M{
			"branches": branches,
			"default":  defaultValue,
		},
	}
}

func exprCase(cond, then interface{}) bson.M {
	return bson.M{"case": cond, "then": then}
}

// exprToIntOrNull converts the input to an int, yielding null instead of
// an error when the input is missing or not numeric.
func exprToIntOrNull(input interface{}) bson.M {
	return bson.M{
		"$convert": bson.M{
			"input":   input,
			"to":      "int",
			"onError": nil,
			"onNull":  nil,
		},
	}
}

// exprStringOrEmpty passes strings through and turns any other type,
// missing fields included, into "".
func exprStringOrEmpty(input interface{}) bson.M {
	return bson.M{
		"$cond": bson.A{
			bson.M{"$eq": bson.A{bson.M{"$type": input}, "string"}},
			input,
			"",
		},
	}
}

// exprBetween is true when the input is a number within [min, max]. Null
// sorts below every number, so a null input is never between.
func exprBetween(input interface{}, min, max int) bson.M {
	return bson.M{
		"$and": bson.A{
			bson.M{"$ne": bson.A{input, nil}},
			bson.M{"$gte": bson.A{input, min}},
			bson.M{"$lte": bson.A{input, max}},
		},
	}
}

func exprArrayElemAt(array interface{}, index int) bson.M {
	return bson.M{"$arrayElemAt": bson.A{array, index}}
}

func specifyField(fieldName string) string {
	return fmt.Sprintf("$%s", fieldName)
}
