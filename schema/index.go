package schema

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoDBIndexer struct {
	ctx      context.Context
	dbName   string
	Client   *mongo.Client
	Database *mongo.Database
}

func NewMongoDBIndexer(client *mongo.Client, dbName string) *MongoDBIndexer {
	return &MongoDBIndexer{
		ctx:      context.Background(),
		dbName:   dbName,
		Client:   client,
		Database: client.Database(dbName),
	}
}

func (m *MongoDBIndexer) createIndex(collection string, index mongo.IndexModel) error {
	c := m.Database.Collection(collection)
	_, err := c.Indexes().CreateOne(m.ctx, index)
	return err
}

func panicIfError(err error) {
	if err != nil {
		panic(err)
	}
}

func (m *MongoDBIndexer) IndexAll() {
	panicIfError(m.IndexCitizenCollection())
	panicIfError(m.IndexHospitalCollection())
	panicIfError(m.IndexVaccineCollection())
}

func (m *MongoDBIndexer) IndexCitizenCollection() error {
	if err := m.createIndex(CitizenCollection, mongo.IndexModel{
		Keys: bson.M{
			"lastHospitalCode": 1,
		},
	}); err != nil {
		return err
	}

	return m.createIndex(CitizenCollection, mongo.IndexModel{
		Keys: bson.D{
			{Key: "firstName", Value: 1},
			{Key: "lastName", Value: 1},
		},
	})
}

// IndexHospitalCollection makes the hospital code unique so that
// a citizen joins to at most one hospital.
func (m *MongoDBIndexer) IndexHospitalCollection() error {
	return m.createIndex(HospitalCollection, mongo.IndexModel{
		Keys: bson.M{
			"hospitalCode": 1,
		},
		Options: options.Index().SetUnique(true),
	})
}

func (m *MongoDBIndexer) IndexVaccineCollection() error {
	return m.createIndex(VaccineCollection, mongo.IndexModel{
		Keys: bson.M{
			"code": 1,
		},
		Options: options.Index().SetUnique(true),
	})
}
