package main

import (
	"context"
	"flag"
	"fmt"
	"io/ioutil"
	"strings"

	"github.com/spf13/viper"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"gopkg.in/yaml.v2"

	"github.com/bitmark-inc/vaccination-api/schema"
	"github.com/bitmark-inc/vaccination-api/store"
)

// fixtures is the layout of a seed file
type fixtures struct {
	Hospitals []schema.Hospital          `yaml:"hospitals"`
	Vaccines  []schema.VaccineDefinition `yaml:"vaccines"`
	Citizens  []schema.Citizen           `yaml:"citizens"`
}

func init() {
	viper.AutomaticEnv()
	viper.SetEnvPrefix("vaccination")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
}

func main() {
	var fixtureFile string
	flag.StringVar(&fixtureFile, "f", "", "[optional] yaml file of hospitals, vaccines and citizens to seed")
	flag.Parse()

	ctx := context.Background()
	opts := options.Client().ApplyURI(viper.GetString("mongo.conn"))
	opts.SetMaxPoolSize(1)
	client, err := mongo.NewClient(opts)
	if err != nil {
		panic(err)
	}
	if err := client.Connect(ctx); err != nil {
		panic(err)
	}
	defer client.Disconnect(ctx)

	dbName := viper.GetString("mongo.database")
	schema.NewMongoDBIndexer(client, dbName).IndexAll()

	if fixtureFile == "" {
		return
	}

	if err := seedMongo(ctx, client.Database(dbName), fixtureFile); err != nil {
		panic(err)
	}
}

func seedMongo(ctx context.Context, db *mongo.Database, file string) error {
	data, err := ioutil.ReadFile(file)
	if err != nil {
		return err
	}

	var f fixtures
	if err := yaml.Unmarshal(data, &f); err != nil {
		return err
	}

	hospitals := make([]interface{}, 0, len(f.Hospitals))
	for _, h := range f.Hospitals {
		hospitals = append(hospitals, h)
	}
	if err := insertIgnoreDuplicates(ctx, db.Collection(schema.HospitalCollection), hospitals); err != nil {
		fmt.Println("failed to seed collection `hospital`: ", err)
		return err
	}

	vaccines := make([]interface{}, 0, len(f.Vaccines))
	for _, v := range f.Vaccines {
		vaccines = append(vaccines, v)
	}
	if err := insertIgnoreDuplicates(ctx, db.Collection(schema.VaccineCollection), vaccines); err != nil {
		fmt.Println("failed to seed collection `vaccinationsData`: ", err)
		return err
	}

	citizens := make([]interface{}, 0, len(f.Citizens))
	for _, c := range f.Citizens {
		citizens = append(citizens, c)
	}
	if err := insertIgnoreDuplicates(ctx, db.Collection(schema.CitizenCollection), citizens); err != nil {
		fmt.Println("failed to seed collection `citizen`: ", err)
		return err
	}

	fmt.Printf("seeded %d hospitals, %d vaccines, %d citizens\n", len(hospitals), len(vaccines), len(citizens))
	return nil
}

func insertIgnoreDuplicates(ctx context.Context, c *mongo.Collection, docs []interface{}) error {
	if len(docs) == 0 {
		return nil
	}

	_, err := c.InsertMany(ctx, docs, options.InsertMany().SetOrdered(false))
	if errs, hasErr := err.(mongo.BulkWriteException); hasErr {
		for _, we := range errs.WriteErrors {
			if we.Code != store.DuplicateKeyCode {
				return err
			}
		}
		return nil
	}

	return err
}
