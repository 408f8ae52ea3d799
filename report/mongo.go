package report

import (
	"context"
	"fmt"

	"github.com/gookit/slog"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"migrateData/model"
)

const (
	DefaultMongoDatabase   = "migrate_data"
	DefaultMongoCollection = "reports"
)

// MongoSink stores each report as one document.
type MongoSink struct {
	URI        string
	Database   string
	Collection string
	Client     *mongo.Client
}

func (self *MongoSink) Init(ctx context.Context) error {
	if self.Database == "" {
		self.Database = DefaultMongoDatabase
	}
	if self.Collection == "" {
		self.Collection = DefaultMongoCollection
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(self.URI))
	if err != nil {
		return fmt.Errorf("MongoSink.Init -> %w", err)
	}
	self.Client = client
	return nil
}

func (self *MongoSink) Close(ctx context.Context) {
	//关闭连接池
	if err := self.Client.Disconnect(ctx); err != nil {
		slog.Errorf("close mongo client: %s", err)
	}
}

// Save inserts rep and returns the id of the new document.
func (self *MongoSink) Save(ctx context.Context, rep *model.Report) (any, error) {
	res, err := self.Client.Database(self.Database).Collection(self.Collection).InsertOne(ctx, rep)
	if err != nil {
		return nil, fmt.Errorf("MongoSink.Save -> %w", err)
	}
	slog.Infof("report saved to %s.%s, _id=%v", self.Database, self.Collection, res.InsertedID)
	return res.InsertedID, nil
}

// SaveMongo connects to uri, stores rep and disconnects.
func SaveMongo(ctx context.Context, uri, database, collection string, rep *model.Report) error {
	sink := &MongoSink{URI: uri, Database: database, Collection: collection}
	if err := sink.Init(ctx); err != nil {
		return err
	}
	defer sink.Close(ctx)
	_, err := sink.Save(ctx, rep)
	return err
}
