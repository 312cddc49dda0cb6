package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// UserRepository stores both identity variants in one collection keyed by a
// role discriminator.
type UserRepository struct {
	collection *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{collection: db.Collection("users")}
}

// EnsureIndexes makes email unique across students and faculty alike.
func (r *UserRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "role", Value: 1}}},
	})
	return err
}

type studentDocument struct {
	Role    Role `bson:"role"`
	Student `bson:",inline"`
}

type facultyDocument struct {
	Role    Role `bson:"role"`
	Faculty `bson:",inline"`
}

func toDocument(u Identity) (any, error) {
	switch v := u.(type) {
	case *Student:
		return studentDocument{Role: RoleStudent, Student: *v}, nil
	case *Faculty:
		return facultyDocument{Role: RoleFaculty, Faculty: *v}, nil
	default:
		return nil, fmt.Errorf("unsupported identity type %T", u)
	}
}

func decode(raw bson.Raw) (Identity, error) {
	role, ok := raw.Lookup("role").StringValueOK()
	if !ok {
		return nil, errors.New("user document has no role")
	}
	switch Role(role) {
	case RoleStudent:
		var doc studentDocument
		if err := bson.Unmarshal(raw, &doc); err != nil {
			return nil, err
		}
		return &doc.Student, nil
	case RoleFaculty:
		var doc facultyDocument
		if err := bson.Unmarshal(raw, &doc); err != nil {
			return nil, err
		}
		return &doc.Faculty, nil
	default:
		return nil, fmt.Errorf("unknown role %q", role)
	}
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M) (Identity, error) {
	raw, err := r.collection.FindOne(ctx, filter).Raw()
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return decode(raw)
}

func (r *UserRepository) findMany(ctx context.Context, filter bson.M, opts ...*options.FindOptions) ([]Identity, error) {
	cursor, err := r.collection.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var users []Identity
	for cursor.Next(ctx) {
		u, err := decode(cursor.Current)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, cursor.Err()
}

func (r *UserRepository) Create(ctx context.Context, u Identity) error {
	a := u.Base()
	if a.ID.IsZero() {
		a.ID = primitive.NewObjectID()
	}
	now := time.Now().UTC()
	a.CreatedAt, a.UpdatedAt = now, now

	doc, err := toDocument(u)
	if err != nil {
		return err
	}
	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateEmail
		}
		return err
	}
	return nil
}

func (r *UserRepository) FindByID(ctx context.Context, id primitive.ObjectID) (Identity, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (Identity, error) {
	return r.findOne(ctx, bson.M{"email": NormalizeEmail(email)})
}

func (r *UserRepository) FindByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]Identity, error) {
	out := make(map[primitive.ObjectID]Identity, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	users, err := r.findMany(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		out[u.Base().ID] = u
	}
	return out, nil
}

func (r *UserRepository) List(ctx context.Context, role Role) ([]Identity, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	return r.findMany(ctx, bson.M{"role": role}, opts)
}

func (r *UserRepository) updateByID(ctx context.Context, id primitive.ObjectID, update bson.M) error {
	res, err := r.collection.UpdateByID(ctx, id, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *UserRepository) SetEmailOTP(ctx context.Context, id primitive.ObjectID, otp string, expires time.Time) error {
	return r.updateByID(ctx, id, bson.M{"$set": bson.M{
		"email_verification_otp":         otp,
		"email_verification_otp_expires": expires,
		"updated_at":                     time.Now().UTC(),
	}})
}

func (r *UserRepository) ClearEmailOTP(ctx context.Context, id primitive.ObjectID) error {
	return r.updateByID(ctx, id, bson.M{"$unset": bson.M{
		"email_verification_otp":         "",
		"email_verification_otp_expires": "",
	}})
}

func (r *UserRepository) ConsumeEmailOTP(ctx context.Context, email, otp string, now time.Time) (Identity, error) {
	filter := bson.M{
		"email":                          NormalizeEmail(email),
		"email_verification_otp":         otp,
		"email_verification_otp_expires": bson.M{"$gt": now},
	}
	update := bson.M{
		"$set":   bson.M{"is_email_verified": true, "updated_at": now},
		"$unset": bson.M{"email_verification_otp": "", "email_verification_otp_expires": ""},
	}
	return r.findOneAndUpdate(ctx, filter, update)
}

func (r *UserRepository) SetResetOTP(ctx context.Context, id primitive.ObjectID, otp string, expires time.Time) error {
	return r.updateByID(ctx, id, bson.M{"$set": bson.M{
		"password_reset_otp":         otp,
		"password_reset_otp_expires": expires,
		"updated_at":                 time.Now().UTC(),
	}})
}

func (r *UserRepository) ClearResetOTP(ctx context.Context, id primitive.ObjectID) error {
	return r.updateByID(ctx, id, bson.M{"$unset": bson.M{
		"password_reset_otp":         "",
		"password_reset_otp_expires": "",
	}})
}

func (r *UserRepository) ConsumeResetOTP(ctx context.Context, email, otp, passwordHash string, now time.Time) (Identity, error) {
	filter := bson.M{
		"email":                      NormalizeEmail(email),
		"password_reset_otp":         otp,
		"password_reset_otp_expires": bson.M{"$gt": now},
	}
	update := bson.M{
		"$set":   bson.M{"password_hash": passwordHash, "updated_at": now},
		"$unset": bson.M{"password_reset_otp": "", "password_reset_otp_expires": ""},
	}
	return r.findOneAndUpdate(ctx, filter, update)
}

func (r *UserRepository) findOneAndUpdate(ctx context.Context, filter, update bson.M) (Identity, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	raw, err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Raw()
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return decode(raw)
}

// ClearExpiredOTPs unsets every OTP pair whose expiry has passed.
func (r *UserRepository) ClearExpiredOTPs(ctx context.Context, now time.Time) (int64, error) {
	var total int64
	pairs := [][2]string{
		{"email_verification_otp", "email_verification_otp_expires"},
		{"password_reset_otp", "password_reset_otp_expires"},
	}
	for _, p := range pairs {
		res, err := r.collection.UpdateMany(ctx,
			bson.M{p[1]: bson.M{"$lte": now}},
			bson.M{"$unset": bson.M{p[0]: "", p[1]: ""}})
		if err != nil {
			return total, err
		}
		total += res.ModifiedCount
	}
	return total, nil
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id primitive.ObjectID, passwordHash string) error {
	return r.updateByID(ctx, id, bson.M{"$set": bson.M{"password_hash": passwordHash, "updated_at": time.Now().UTC()}})
}

func (r *UserRepository) SetFacultyVerified(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id, "role": RoleFaculty},
		bson.M{"$set": bson.M{"is_verified": true, "updated_at": time.Now().UTC()}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *UserRepository) SetAdmin(ctx context.Context, id primitive.ObjectID, admin bool) error {
	return r.updateByID(ctx, id, bson.M{"$set": bson.M{"is_admin": admin, "updated_at": time.Now().UTC()}})
}

func (r *UserRepository) SetAdminByEmail(ctx context.Context, email string, admin bool) error {
	res, err := r.collection.UpdateOne(ctx,
		bson.M{"email": NormalizeEmail(email)},
		bson.M{"$set": bson.M{"is_admin": admin, "updated_at": time.Now().UTC()}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Replace swaps the whole document in one write, so a role conversion either
// lands completely or not at all and the id other records point at survives.
func (r *UserRepository) Replace(ctx context.Context, u Identity) error {
	u.Base().UpdatedAt = time.Now().UTC()
	doc, err := toDocument(u)
	if err != nil {
		return err
	}
	res, err := r.collection.ReplaceOne(ctx, bson.M{"_id": u.Base().ID}, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateEmail
		}
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *UserRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

var _ Store = (*UserRepository)(nil)
