package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/yourusername/tunedrop/internal/domain"
)

const (
	songsCollection     = "songs"
	playlistsCollection = "playlists"
)

// MongoSongRepository implements domain.SongRepository using MongoDB.
// Playlists store song ids; songs are loaded on read.
type MongoSongRepository struct {
	client    *mongo.Client
	songs     *mongo.Collection
	playlists *mongo.Collection
}

// NewMongoSongRepository connects to uri and verifies the connection
func NewMongoSongRepository(ctx context.Context, uri, database string) (*MongoSongRepository, error) {
	if uri == "" {
		return nil, fmt.Errorf("mongo uri is not configured")
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}

	db := client.Database(database)
	return &MongoSongRepository{
		client:    client,
		songs:     db.Collection(songsCollection),
		playlists: db.Collection(playlistsCollection),
	}, nil
}

// CreateSong stores a new song
func (r *MongoSongRepository) CreateSong(ctx context.Context, song *domain.Song) error {
	_, err := r.songs.InsertOne(ctx, song)
	return err
}

// FindSong finds a song by ID
func (r *MongoSongRepository) FindSong(ctx context.Context, id string) (*domain.Song, error) {
	var song domain.Song
	if err := r.songs.FindOne(ctx, bson.M{"_id": id}).Decode(&song); err != nil {
		return nil, mapNoDocuments(err, "song", id)
	}
	return &song, nil
}

// ListSongs returns all songs, newest first
func (r *MongoSongRepository) ListSongs(ctx context.Context) ([]*domain.Song, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	return r.findSongs(ctx, bson.M{}, opts)
}

// CreatePlaylist stores a playlist referencing existing songs
func (r *MongoSongRepository) CreatePlaylist(ctx context.Context, playlist *domain.Playlist) error {
	if playlist.SongIDs == nil {
		playlist.SongIDs = []string{}
	}
	playlist.SongIDs = uniqueIDs(playlist.SongIDs)

	songs, err := r.songsByID(ctx, playlist.SongIDs)
	if err != nil {
		return err
	}
	if len(songs) != len(playlist.SongIDs) {
		return fmt.Errorf("playlist references unknown songs: %w", domain.ErrNotFound)
	}

	if _, err := r.playlists.InsertOne(ctx, playlist); err != nil {
		return err
	}
	playlist.Songs = songs
	return nil
}

// FindPlaylist finds a playlist by ID with its songs loaded
func (r *MongoSongRepository) FindPlaylist(ctx context.Context, id string) (*domain.Playlist, error) {
	var playlist domain.Playlist
	if err := r.playlists.FindOne(ctx, bson.M{"_id": id}).Decode(&playlist); err != nil {
		return nil, mapNoDocuments(err, "playlist", id)
	}
	if err := r.loadSongs(ctx, &playlist); err != nil {
		return nil, err
	}
	return &playlist, nil
}

// ListPlaylists returns all playlists with their songs, newest first
func (r *MongoSongRepository) ListPlaylists(ctx context.Context) ([]*domain.Playlist, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.playlists.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	playlists := []*domain.Playlist{}
	if err := cursor.All(ctx, &playlists); err != nil {
		return nil, err
	}
	for _, p := range playlists {
		if err := r.loadSongs(ctx, p); err != nil {
			return nil, err
		}
	}
	return playlists, nil
}

// AddSongToPlaylist appends a song to an existing playlist. Adding a song twice is a no-op.
func (r *MongoSongRepository) AddSongToPlaylist(ctx context.Context, playlistID, songID string) error {
	if _, err := r.FindSong(ctx, songID); err != nil {
		return err
	}

	res, err := r.playlists.UpdateOne(ctx,
		bson.M{"_id": playlistID},
		bson.M{
			"$addToSet": bson.M{"song_ids": songID},
			"$set":      bson.M{"updated_at": time.Now()},
		})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("playlist %s: %w", playlistID, domain.ErrNotFound)
	}
	return nil
}

// Stats returns library counts
func (r *MongoSongRepository) Stats(ctx context.Context) (*domain.LibraryStats, error) {
	songs, err := r.songs.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	playlists, err := r.playlists.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	return &domain.LibraryStats{Songs: songs, Playlists: playlists}, nil
}

// Close disconnects the client
func (r *MongoSongRepository) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return r.client.Disconnect(ctx)
}

func (r *MongoSongRepository) findSongs(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]*domain.Song, error) {
	cursor, err := r.songs.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	songs := []*domain.Song{}
	if err := cursor.All(ctx, &songs); err != nil {
		return nil, err
	}
	return songs, nil
}

func (r *MongoSongRepository) songsByID(ctx context.Context, ids []string) ([]*domain.Song, error) {
	if len(ids) == 0 {
		return []*domain.Song{}, nil
	}
	return r.findSongs(ctx, bson.M{"_id": bson.M{"$in": ids}})
}

// loadSongs resolves SongIDs, keeping playlist order and dropping deleted songs
func (r *MongoSongRepository) loadSongs(ctx context.Context, p *domain.Playlist) error {
	if p.SongIDs == nil {
		p.SongIDs = []string{}
	}
	songs, err := r.songsByID(ctx, p.SongIDs)
	if err != nil {
		return err
	}
	p.Songs = orderSongs(p.SongIDs, songs)
	return nil
}

func orderSongs(ids []string, songs []*domain.Song) []*domain.Song {
	byID := make(map[string]*domain.Song, len(songs))
	for _, s := range songs {
		byID[s.ID] = s
	}
	ordered := make([]*domain.Song, 0, len(ids))
	for _, id := range ids {
		if s, ok := byID[id]; ok {
			ordered = append(ordered, s)
		}
	}
	return ordered
}

func mapNoDocuments(err error, kind, id string) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return fmt.Errorf("%s %s: %w", kind, id, domain.ErrNotFound)
	}
	return err
}
